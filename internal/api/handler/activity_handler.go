package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"colab/backend/internal/dto"
	"colab/backend/internal/service"
	"colab/backend/pkg/response"
)

// ActivityHandler 活动模块 HTTP 处理器（项目、作业、体验活动、宾果游戏）
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListActivities 课程下全部活动，按结束时间升序
// GET /api/v1/courses/:id/activities
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, codeInvalidParam, "课程ID不能为空")
		return
	}

	activities, err := h.activitySvc.List(c.Request.Context(), courseID)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": activities})
}

// GetActivity 获取活动详情
// GET /api/v1/activities/:kind/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	activity, err := h.activitySvc.GetByID(c.Request.Context(), c.Param("kind"), c.Param("id"))
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, activity)
}

// CreateActivity 在课程下创建活动；缺省日期取课程日期
// POST /api/v1/courses/:id/activities/:kind
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, codeInvalidParam, "课程ID不能为空")
		return
	}

	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	activity, err := h.activitySvc.Create(c.Request.Context(), courseID, c.Param("kind"), &req, callerID)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.Created(c, activity)
}

// UpdateActivity 更新活动
// PUT /api/v1/activities/:kind/:id
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	activity, err := h.activitySvc.Update(c.Request.Context(), c.Param("kind"), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, activity)
}

// DeleteActivity 删除活动
// DELETE /api/v1/activities/:kind/:id
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.activitySvc.Delete(c.Request.Context(), c.Param("kind"), c.Param("id"), callerID); err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetAvailability 项目当前能否提交；可用 at 指定检查时刻（RFC3339）
// GET /api/v1/projects/:id/availability
func (h *ActivityHandler) GetAvailability(c *gin.Context) {
	now := time.Now()
	if at := c.Query("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			response.BadRequest(c, codeInvalidParam, "at 必须为 RFC3339 时间")
			return
		}
		now = t
	}

	result, err := h.activitySvc.Availability(c.Request.Context(), c.Param("id"), now)
	if err != nil {
		h.handleActivityError(c, err)
		return
	}

	response.OK(c, result)
}

// handleActivityError 统一处理活动模块业务错误
func (h *ActivityHandler) handleActivityError(c *gin.Context, err error) {
	if handleTimelineError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		response.NotFound(c, 21001, "活动不存在")
	case errors.Is(err, service.ErrInvalidKind):
		response.BadRequest(c, 21002, "未知的活动类别")
	case errors.Is(err, service.ErrActivityNameRequired):
		response.BadRequest(c, 21003, "活动名称不能为空")
	case errors.Is(err, service.ErrLinkedProjectInvalid):
		response.BadRequest(c, 21004, "关联的项目不存在或不属于同一课程")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrInvalidTimezone):
		response.BadRequest(c, 20002, "无效的时区")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20003, "日期格式无效，应为 YYYY-MM-DD 或 RFC3339")
	default:
		response.InternalError(c)
	}
}
