package model

import (
	"time"

	"gorm.io/gorm"

	"colab/backend/internal/timeline"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// LockVersion 当前乐观锁版本
func (v *VersionedModel) LockVersion() int { return v.Version }

// SetLockVersion 更新成功/失败后回写版本号
func (v *VersionedModel) SetLockVersion(n int) { v.Version = n }

// fresh 复制出的新记录重置审计字段与版本号，保留创建人
func (v VersionedModel) fresh() VersionedModel {
	return VersionedModel{
		SoftDeleteModel: SoftDeleteModel{BaseModel: BaseModel{CreatedBy: v.CreatedBy}},
		Version:         1,
	}
}

// ── 活动公共字段 ──

// ActivityBase 四类活动共享的所属课程与起止时间；时间可为空，校验前由课程补齐
type ActivityBase struct {
	CourseID  string     `gorm:"type:uuid;not null;index" json:"course_id"`
	StartDate *time.Time `gorm:"type:timestamptz"          json:"start_date"`
	EndDate   *time.Time `gorm:"type:timestamptz;index"    json:"end_date"`
}

// DateRange 起止时间（空值映射为零值）
func (b *ActivityBase) DateRange() timeline.Range {
	return timeline.NewRange(derefTime(b.StartDate), derefTime(b.EndDate))
}

// SetDateRange 写回起止时间（零值映射为空）
func (b *ActivityBase) SetDateRange(r timeline.Range) {
	b.StartDate = timePtr(r.Start)
	b.EndDate = timePtr(r.End)
}

// OwningCourseID 所属课程
func (b *ActivityBase) OwningCourseID() string { return b.CourseID }

// AssignCourse 挂到指定课程下
func (b *ActivityBase) AssignCourse(courseID string) { b.CourseID = courseID }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
