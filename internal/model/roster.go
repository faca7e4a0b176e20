package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// 名册角色
const (
	RoleInstructor        = "instructor"
	RoleAssistant         = "assistant"
	RoleEnrolledStudent   = "enrolled_student"
	RoleInvitedStudent    = "invited_student"
	RoleRequestingStudent = "requesting_student"
	RoleDeclinedStudent   = "declined_student"
	RoleDroppedStudent    = "dropped_student"
	RoleRejectedStudent   = "rejected_student"
)

// FacultyRoles 教学人员角色（克隆课程时随课程复制）
var FacultyRoles = []string{RoleInstructor, RoleAssistant}

// IsFacultyRole 是否为教学人员
func IsFacultyRole(role string) bool {
	for _, r := range FacultyRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Roster 课程名册表 — 对应 rosters；Profile 为外部身份系统同步的学生画像（JSON 对象）
type Roster struct {
	RosterID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"roster_id"`
	CourseID string         `gorm:"type:uuid;not null;index"                       json:"course_id"`
	UserID   string         `gorm:"type:uuid;not null"                             json:"user_id"`
	Role     string         `gorm:"type:varchar(30);not null;default:'invited_student'" json:"role"`
	Profile  datatypes.JSON `gorm:"type:jsonb"                                     json:"profile,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Roster) TableName() string { return "rosters" }

// ProfileAttributes 画像属性；非字符串取值按 JSON 文本处理
func (r *Roster) ProfileAttributes() (map[string]string, error) {
	if len(r.Profile) == 0 {
		return map[string]string{}, nil
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal(r.Profile, &raw); err != nil {
		return nil, fmt.Errorf("解析名册 %s 画像失败: %w", r.RosterID, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	return out, nil
}
