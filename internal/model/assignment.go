package model

import "colab/backend/internal/timeline"

// DefaultAssignmentPassing 作业默认及格线
const DefaultAssignmentPassing = 65

// Assignment 作业表 — 对应 assignments；可选关联项目
type Assignment struct {
	AssignmentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	Name         string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Description  string  `gorm:"type:text"                                      json:"description,omitempty"`
	Active       bool    `gorm:"not null;default:false"                         json:"active"`
	GroupEnabled bool    `gorm:"not null;default:false"                         json:"group_enabled"`
	RubricID     *int    `json:"rubric_id,omitempty"`
	FileSub      bool    `gorm:"not null;default:false"                         json:"file_sub"`
	LinkSub      bool    `gorm:"not null;default:false"                         json:"link_sub"`
	TextSub      bool    `gorm:"not null;default:false"                         json:"text_sub"`
	Passing      int     `gorm:"not null;default:65"                            json:"passing"` // 及格线（百分比）
	ProjectID    *string `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	ActivityBase
	VersionedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

func (a *Assignment) KeyColumn() string           { return "assignment_id" }
func (a *Assignment) ActivityID() string          { return a.AssignmentID }
func (a *Assignment) SetActivityID(id string)     { a.AssignmentID = id }
func (a *Assignment) ActivityKind() timeline.Kind { return timeline.KindAssignment }
func (a *Assignment) ActivityName() string        { return a.Name }
func (a *Assignment) LinkedActivityID() string    { return derefString(a.ProjectID) }

func (a *Assignment) SetLinkedActivityID(id string) {
	a.ProjectID = stringPtr(id)
	a.Project = nil
}

// CloneActivity 复制作业（项目引用由克隆器重新指向）
func (a *Assignment) CloneActivity(newID string) timeline.Activity {
	dup := *a
	dup.AssignmentID = newID
	dup.Active = false
	dup.Project = nil
	dup.VersionedModel = a.VersionedModel.fresh()
	dup.CourseID = ""
	return &dup
}
