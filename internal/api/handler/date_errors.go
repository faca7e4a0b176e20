package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"colab/backend/internal/dto"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
	"colab/backend/pkg/response"
)

// 各模块共用的业务码
const (
	codeInvalidParam   = 10001
	codeConflict       = 10006
	codeDateInvalid    = 20004
	codeMigrationFail  = 20005
	codeCloneFail      = 20006
	codeWeekdayInvalid = 21005
)

// migrationDetails 时区迁移失败时返回的明细
type migrationDetails struct {
	ActivityID string                `json:"activity_id,omitempty"`
	Kind       string                `json:"kind,omitempty"`
	Reason     string                `json:"reason"`
	Issues     []dto.ValidationIssue `json:"issues,omitempty"`
}

// cloneDetails 克隆失败时返回的明细
type cloneDetails struct {
	Entity   string                `json:"entity"`
	EntityID string                `json:"entity_id"`
	Reason   string                `json:"reason"`
	Issues   []dto.ValidationIssue `json:"issues,omitempty"`
}

// bindFailed 请求体绑定失败：校验类错误附带字段明细
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c)
		return
	}
	if details := dto.FieldErrors(err); len(details) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidParam, "参数校验失败", details)
		return
	}
	response.BadRequest(c, codeInvalidParam, "参数校验失败")
}

// handleTimelineError 处理日期校验、时区迁移、克隆与乐观锁错误；已写响应时返回 true
func handleTimelineError(c *gin.Context, err error) bool {
	var cloneErr *timeline.CloneError
	if errors.As(err, &cloneErr) {
		entity := "course"
		if cloneErr.Kind != "" {
			entity = string(cloneErr.Kind)
		}
		response.ValidationFailed(c, codeCloneFail, "课程克隆失败", cloneDetails{
			Entity:   entity,
			EntityID: cloneErr.EntityID,
			Reason:   cloneErr.Err.Error(),
			Issues:   issuesOf(cloneErr.Err, entity, cloneErr.EntityID),
		})
		return true
	}

	var migErr *timeline.MigrationError
	if errors.As(err, &migErr) {
		response.ValidationFailed(c, codeMigrationFail, "时区迁移失败", migrationDetails{
			ActivityID: migErr.ActivityID,
			Kind:       string(migErr.Kind),
			Reason:     migErr.Err.Error(),
			Issues:     issuesOf(migErr.Err, string(migErr.Kind), migErr.ActivityID),
		})
		return true
	}

	var verrs timeline.ValidationErrors
	if errors.As(err, &verrs) {
		response.ValidationFailed(c, codeDateInvalid, "日期校验失败", issuesOf(verrs, "", ""))
		return true
	}

	switch {
	case errors.Is(err, timeline.ErrWeekdayOutOfRange):
		response.BadRequest(c, codeWeekdayInvalid, "星期取值必须在 0~6 之间")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeConflict, "数据已被其他操作修改，请刷新后重试")
	default:
		return false
	}
	return true
}

func issuesOf(err error, entity, entityID string) []dto.ValidationIssue {
	var verrs timeline.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]dto.ValidationIssue, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, dto.ValidationIssue{
			Entity:   entity,
			EntityID: entityID,
			Field:    e.Field,
			Kind:     e.Kind.String(),
			Message:  e.Message,
		})
	}
	return out
}
