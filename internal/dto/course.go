package dto

// ── 课程模块请求 ──

// CreateCourseRequest 创建课程请求。
// 日期接受 "2006-01-02" 或 RFC3339；开始日期取 UTC 日历日，结束日期取课程时区内的日历日。
type CreateCourseRequest struct {
	Name          string  `json:"name"            binding:"required,min=2,max=200"`
	Number        string  `json:"number"          binding:"omitempty,max=50"`
	Description   string  `json:"description"     binding:"omitempty,max=4000"`
	Timezone      string  `json:"timezone"        binding:"omitempty,timezone"`
	StartDate     string  `json:"start_date"      binding:"required"`
	EndDate       string  `json:"end_date"        binding:"required"`
	ConsentFormID *string `json:"consent_form_id" binding:"omitempty,max=64"`
}

// UpdateCourseRequest 更新课程请求（指针字段，nil 表示不修改）
type UpdateCourseRequest struct {
	Name          *string `json:"name"            binding:"omitempty,min=2,max=200"`
	Number        *string `json:"number"          binding:"omitempty,max=50"`
	Description   *string `json:"description"     binding:"omitempty,max=4000"`
	Timezone      *string `json:"timezone"        binding:"omitempty,timezone"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	ConsentFormID *string `json:"consent_form_id" binding:"omitempty,max=64"`
	// Version 客户端读取时的版本号；提供时与当前版本不一致即冲突
	Version *int `json:"version" binding:"omitempty,min=1"`
}

// CloneCourseRequest 克隆课程请求；new_start 按源课程时区解析
type CloneCourseRequest struct {
	NewStart string `json:"new_start" binding:"required"`
}

// ── 课程模块响应 ──

// CourseResponse 课程响应；时间以课程时区的 RFC3339 表示
type CourseResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Number        string  `json:"number"`
	Description   string  `json:"description,omitempty"`
	Timezone      string  `json:"timezone"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	ConsentFormID *string `json:"consent_form_id,omitempty"`
	Version       int     `json:"version"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CloneCourseResponse 克隆结果
type CloneCourseResponse struct {
	Course        CourseResponse    `json:"course"`
	DayOffset     int               `json:"day_offset"`
	ActivityCount int               `json:"activity_count"`
	RosterCount   int               `json:"roster_count"`
	IDMap         map[string]string `json:"id_map"`
}

// ValidationIssue 一条日期校验问题
type ValidationIssue struct {
	Entity   string `json:"entity"` // course / project / assignment / experience / bingo_game
	EntityID string `json:"entity_id"`
	Field    string `json:"field"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// ValidationReport 课程日期校验报告（课程侧与活动侧两个方向）
type ValidationReport struct {
	CourseID string            `json:"course_id"`
	Valid    bool              `json:"valid"`
	Issues   []ValidationIssue `json:"issues"`
}
