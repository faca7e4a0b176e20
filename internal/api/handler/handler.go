package handler

import "colab/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Course    *CourseHandler
	Activity  *ActivityHandler
	Roster    *RosterHandler
	Diversity *DiversityHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Course:    NewCourseHandler(svc.Course),
		Activity:  NewActivityHandler(svc.Activity),
		Roster:    NewRosterHandler(svc.Roster),
		Diversity: NewDiversityHandler(svc.Diversity),
		Export:    NewExportHandler(svc.Export),
	}
}
