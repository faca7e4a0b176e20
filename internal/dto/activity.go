package dto

// ── 活动模块请求 ──

// ActivityRequest 创建/更新活动请求，四类活动共用（指针字段，nil 表示不修改）。
// 宾果游戏的 name 写入 topic；不适用于该类别的字段被忽略。
type ActivityRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=4000"`
	Active      *bool   `json:"active"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	// ProjectID 宾果游戏 / 作业关联的项目；空字符串表示解除关联
	ProjectID *string `json:"project_id" binding:"omitempty,max=36"`

	// 项目
	StartDOW     *int `json:"start_dow"      binding:"omitempty,min=0,max=6"`
	EndDOW       *int `json:"end_dow"        binding:"omitempty,min=0,max=6"`
	StyleID      *int `json:"style_id"       binding:"omitempty,min=1"`
	FactorPackID *int `json:"factor_pack_id" binding:"omitempty,min=1"`

	// 作业
	GroupEnabled *bool `json:"group_enabled"`
	RubricID     *int  `json:"rubric_id"  binding:"omitempty,min=1"`
	FileSub      *bool `json:"file_sub"`
	LinkSub      *bool `json:"link_sub"`
	TextSub      *bool `json:"text_sub"`
	Passing      *int  `json:"passing"    binding:"omitempty,min=0,max=100"`

	// 体验活动
	Instructions *string `json:"instructions" binding:"omitempty,max=4000"`

	// 宾果游戏
	IndividualCount *int    `json:"individual_count" binding:"omitempty,min=1"`
	GroupOption     *bool   `json:"group_option"`
	GroupDiscount   *int    `json:"group_discount"   binding:"omitempty,min=0,max=100"`
	Link            *string `json:"link"             binding:"omitempty,max=500"`
	Source          *string `json:"source"           binding:"omitempty,max=200"`

	// 体验活动 / 宾果游戏
	LeadTime *int `json:"lead_time" binding:"omitempty,min=0"`

	Version *int `json:"version" binding:"omitempty,min=1"`
}

// ── 活动模块响应 ──

// ActivityResponse 活动响应（混合类别列表的统一形态）；Detail 为类别特有的完整记录
type ActivityResponse struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Name      string      `json:"name"`
	CourseID  string      `json:"course_id"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	ProjectID string      `json:"project_id,omitempty"`
	Version   int         `json:"version"`
	Detail    interface{} `json:"detail"`
}

// AvailabilityResponse 项目当前可提交状态
type AvailabilityResponse struct {
	ProjectID      string   `json:"project_id"`
	Available      bool     `json:"available"`
	Active         bool     `json:"active"`
	InDateRange    bool     `json:"in_date_range"`
	DaysApplicable []string `json:"days_applicable"`
	Timezone       string   `json:"timezone"`
	CheckedAt      string   `json:"checked_at"`
}
