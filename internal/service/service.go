package service

import (
	"go.uber.org/zap"

	"colab/backend/config"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Course    CourseService
	Activity  ActivityService
	Roster    RosterService
	Diversity DiversityService
	Export    ExportService
}

// NewService 创建 Service 聚合；cache 为 nil 时多样性报告不缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	zones timeline.Zones,
	cache ReportCache,
	logger *zap.Logger,
) *Service {
	diversitySvc := NewDiversityService(&cfg.Analysis, repo, cache, logger)
	return &Service{
		Course:    NewCourseService(&cfg.Clone, repo, zones, timeline.NewCloner(zones, nil), cache, logger),
		Activity:  NewActivityService(repo, zones, logger),
		Roster:    NewRosterService(repo, diversitySvc, logger),
		Diversity: diversitySvc,
		Export:    NewExportService(repo, zones, logger),
	}
}
