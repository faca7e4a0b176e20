package model

import "colab/backend/internal/timeline"

// DefaultExperienceLeadTime 体验活动默认提前开放天数
const DefaultExperienceLeadTime = 3

// Experience 体验活动表 — 对应 experiences
type Experience struct {
	ExperienceID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"experience_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	Instructions string `gorm:"type:text"                                      json:"instructions,omitempty"`
	Active       bool   `gorm:"not null;default:false"                         json:"active"`
	LeadTime     int    `gorm:"not null;default:3"                             json:"lead_time"`
	ActivityBase
	VersionedModel
}

// TableName 指定表名
func (Experience) TableName() string { return "experiences" }

func (e *Experience) KeyColumn() string           { return "experience_id" }
func (e *Experience) ActivityID() string          { return e.ExperienceID }
func (e *Experience) SetActivityID(id string)     { e.ExperienceID = id }
func (e *Experience) ActivityKind() timeline.Kind { return timeline.KindExperience }
func (e *Experience) ActivityName() string        { return e.Name }

func (e *Experience) CloneActivity(newID string) timeline.Activity {
	dup := *e
	dup.ExperienceID = newID
	dup.Active = false
	dup.VersionedModel = e.VersionedModel.fresh()
	dup.CourseID = ""
	return &dup
}
