package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/service"
	"colab/backend/pkg/response"
)

// RosterHandler 课程名册 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// ListRosters 获取课程名册
// GET /api/v1/courses/:id/rosters?role=enrolled_student,assistant | ?faculty=true
func (h *RosterHandler) ListRosters(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, codeInvalidParam, "课程ID不能为空")
		return
	}

	var roles []string
	if c.Query("faculty") == "true" {
		roles = model.FacultyRoles
	} else if raw := c.Query("role"); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
	}

	rosters, err := h.rosterSvc.List(c.Request.Context(), courseID, roles)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rosters})
}

// ImportRosters 批量导入名册
// POST /api/v1/courses/:id/rosters
func (h *RosterHandler) ImportRosters(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, codeInvalidParam, "课程ID不能为空")
		return
	}

	var req dto.ImportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rosters, err := h.rosterSvc.Import(c.Request.Context(), courseID, &req, callerID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rosters, "count": len(rosters)})
}

// handleRosterError 统一处理名册模块业务错误
func (h *RosterHandler) handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrInvalidProfile):
		response.BadRequest(c, 22001, "学生画像格式无效")
	default:
		response.InternalError(c)
	}
}
