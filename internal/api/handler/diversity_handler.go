package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"colab/backend/internal/diversity"
	"colab/backend/internal/service"
	"colab/backend/pkg/response"
)

const defaultGroupSize = 4

// DiversityHandler 分组多样性分析 HTTP 处理器
type DiversityHandler struct {
	diversitySvc service.DiversityService
}

// NewDiversityHandler 创建 DiversityHandler
func NewDiversityHandler(diversitySvc service.DiversityService) *DiversityHandler {
	return &DiversityHandler{diversitySvc: diversitySvc}
}

// GetReport 课程分组多样性报告
// GET /api/v1/courses/:id/diversity?group_size=4&refresh=true
func (h *DiversityHandler) GetReport(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, codeInvalidParam, "课程ID不能为空")
		return
	}

	groupSize := defaultGroupSize
	if raw := c.Query("group_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, 23001, "group_size 必须为正整数")
			return
		}
		groupSize = n
	}
	refresh := c.Query("refresh") == "true"

	report, err := h.diversitySvc.Analyze(c.Request.Context(), courseID, groupSize, refresh)
	if err != nil {
		if errors.Is(err, diversity.ErrSamplingExhausted) && report != nil {
			response.ValidationFailed(c, 23003, "没有有效的分组得分", report)
			return
		}
		h.handleDiversityError(c, err)
		return
	}

	response.OK(c, report)
}

// handleDiversityError 统一处理多样性分析业务错误
func (h *DiversityHandler) handleDiversityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, diversity.ErrInvalidGroupSize):
		response.BadRequest(c, 23001, "group_size 必须为正整数")
	case errors.Is(err, service.ErrNoEnrolledStudents):
		response.BadRequest(c, 23002, "课程没有已选课的学生")
	case errors.Is(err, diversity.ErrSamplingExhausted):
		response.ValidationFailed(c, 23003, "没有有效的分组得分", nil)
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程不存在")
	default:
		response.InternalError(c)
	}
}
