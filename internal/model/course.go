package model

import (
	"time"

	"colab/backend/internal/timeline"
)

// Course 课程表 — 对应 courses
type Course struct {
	CourseID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name        string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Number      string     `gorm:"type:varchar(50)"                               json:"number"`
	Description string     `gorm:"type:text"                                      json:"description,omitempty"`
	Timezone    string     `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"`
	StartDate   *time.Time `gorm:"type:timestamptz"                               json:"start_date"`
	EndDate     *time.Time `gorm:"type:timestamptz"                               json:"end_date"`

	// ConsentFormID 外部知情同意书引用，原样随课程复制
	ConsentFormID *string `gorm:"type:varchar(64)" json:"consent_form_id,omitempty"`
	VersionedModel

	// 关联
	Rosters []Roster `gorm:"foreignKey:CourseID;references:CourseID" json:"rosters,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Dates 课程时区与起止时间
func (c *Course) Dates() timeline.CourseDates {
	return timeline.CourseDates{
		ID:       c.CourseID,
		Timezone: c.Timezone,
		Range:    timeline.NewRange(derefTime(c.StartDate), derefTime(c.EndDate)),
	}
}

// SetDates 写回规范化后的起止时间
func (c *Course) SetDates(d timeline.CourseDates) {
	c.Timezone = d.Timezone
	c.StartDate = timePtr(d.Start)
	c.EndDate = timePtr(d.End)
}
