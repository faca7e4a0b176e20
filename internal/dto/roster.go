package dto

// RosterEntry 名册条目；profile 为外部身份系统的学生画像快照
type RosterEntry struct {
	UserID  string                 `json:"user_id" binding:"required,uuid"`
	Role    string                 `json:"role"    binding:"required,oneof=instructor assistant enrolled_student invited_student requesting_student declined_student dropped_student rejected_student"`
	Profile map[string]interface{} `json:"profile"`
}

// ImportRosterRequest 批量导入名册（同一用户重复导入时覆盖角色与画像）
type ImportRosterRequest struct {
	Entries []RosterEntry `json:"entries" binding:"required,min=1,max=2000,dive"`
}

// RosterResponse 名册条目响应
type RosterResponse struct {
	ID       string                 `json:"id"`
	CourseID string                 `json:"course_id"`
	UserID   string                 `json:"user_id"`
	Role     string                 `json:"role"`
	Profile  map[string]interface{} `json:"profile,omitempty"`
}
