package dto

import "colab/backend/internal/diversity"

// DiversityReportResponse 课程分组多样性报告
type DiversityReportResponse struct {
	CourseID   string   `json:"course_id"`
	Attributes []string `json:"attributes"`
	Cached     bool     `json:"cached"`
	*diversity.Report
}
