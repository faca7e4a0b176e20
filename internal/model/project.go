package model

import (
	"time"

	"colab/backend/internal/timeline"
)

// 项目默认值
const (
	DefaultProjectStyle = 2
	DefaultStartDOW     = 5 // 周五
	DefaultEndDOW       = 1 // 周一
)

// Project 项目表 — 对应 projects
type Project struct {
	ProjectID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	Active       bool   `gorm:"not null;default:false"                         json:"active"`
	StyleID      int    `gorm:"not null;default:2"                             json:"style_id"`
	FactorPackID *int   `json:"factor_pack_id,omitempty"`
	StartDOW     int    `gorm:"column:start_dow;type:smallint;not null;default:5" json:"start_dow"` // 0=周日 … 6=周六
	EndDOW       int    `gorm:"column:end_dow;type:smallint;not null;default:1"   json:"end_dow"`
	ActivityBase
	VersionedModel
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

func (p *Project) KeyColumn() string           { return "project_id" }
func (p *Project) ActivityID() string          { return p.ProjectID }
func (p *Project) SetActivityID(id string)     { p.ProjectID = id }
func (p *Project) ActivityKind() timeline.Kind { return timeline.KindProject }
func (p *Project) ActivityName() string        { return p.Name }

// CloneActivity 复制项目；克隆出的项目处于未激活状态
func (p *Project) CloneActivity(newID string) timeline.Activity {
	dup := *p
	dup.ProjectID = newID
	dup.Active = false
	dup.VersionedModel = p.VersionedModel.fresh()
	dup.CourseID = ""
	return &dup
}

// Window 每周开放窗口
func (p *Project) Window() timeline.WeekdayWindow {
	return timeline.WeekdayWindow{Start: p.StartDOW, End: p.EndDOW}
}

// DaysApplicable 每周开放的星期（窗口可跨周末回绕）
func (p *Project) DaysApplicable() []time.Weekday {
	return p.Window().Days()
}

// IsAvailable now 时刻学生能否提交：项目已激活、处于起止区间内、且当天（课程时区）在每周窗口内
func (p *Project) IsAvailable(now time.Time, loc *time.Location) bool {
	if !p.Active {
		return false
	}
	if !p.DateRange().Contains(now) {
		return false
	}
	return p.Window().Includes(now.In(loc).Weekday())
}
