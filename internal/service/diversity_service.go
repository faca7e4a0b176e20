package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"colab/backend/config"
	"colab/backend/internal/diversity"
	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/repository"
)

// ErrNoEnrolledStudents 课程没有已选课学生
var ErrNoEnrolledStudents = errors.New("课程没有已选课的学生")

// ReportCache 多样性报告缓存（Redis 实现见 pkg/redis）
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

func diversityCachePrefix(courseID string) string {
	return "diversity:" + courseID + ":"
}

func diversityCacheKey(courseID string, groupSize int) string {
	return fmt.Sprintf("%s%d", diversityCachePrefix(courseID), groupSize)
}

// DiversityService 分组多样性分析业务接口
type DiversityService interface {
	// Analyze 对课程已选课学生按 groupSize 分组评估；refresh 为 true 时跳过缓存。
	// 没有任何有效得分时同时返回报告与 diversity.ErrSamplingExhausted。
	Analyze(ctx context.Context, courseID string, groupSize int, refresh bool) (*dto.DiversityReportResponse, error)
	Invalidate(ctx context.Context, courseID string) error
}

type diversityService struct {
	repo   *repository.Repository
	cache  ReportCache
	limits diversity.Limits
	seed   int64
	ttl    time.Duration
	logger *zap.Logger
}

// NewDiversityService 创建 DiversityService 实例；cache 为 nil 时不缓存
func NewDiversityService(cfg *config.AnalysisConfig, repo *repository.Repository, cache ReportCache, logger *zap.Logger) DiversityService {
	return &diversityService{
		repo:   repo,
		cache:  cache,
		limits: diversity.Limits{Exhaustive: cfg.ExhaustiveLimit, Samples: cfg.SampleCount},
		seed:   cfg.Seed,
		ttl:    cfg.CacheTTL,
		logger: logger,
	}
}

// ────────────────────── Analyze ──────────────────────

func (s *diversityService) Analyze(ctx context.Context, courseID string, groupSize int, refresh bool) (*dto.DiversityReportResponse, error) {
	if groupSize < 1 {
		return nil, diversity.ErrInvalidGroupSize
	}
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	key := diversityCacheKey(courseID, groupSize)
	if s.cache != nil && !refresh {
		var cached dto.DiversityReportResponse
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取多样性报告缓存失败", zap.String("key", key), zap.Error(err))
		} else if hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	students, err := s.repo.Roster.ListByCourse(ctx, courseID, model.RoleEnrolledStudent)
	if err != nil {
		s.logger.Error("查询课程名册失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrNoEnrolledStudents
	}

	profiles := make(map[string]map[string]string, len(students))
	for i := range students {
		attrs, err := students[i].ProfileAttributes()
		if err != nil {
			s.logger.Warn("学生画像无法解析，按空画像处理", zap.String("roster_id", students[i].RosterID), zap.Error(err))
			attrs = map[string]string{}
		}
		profiles[students[i].RosterID] = attrs
	}
	attrsOf := func(r model.Roster) map[string]string { return profiles[r.RosterID] }

	report, err := diversity.Analyze(students, groupSize, diversity.ProfileScorer(attrsOf), s.newRand(), s.limits)
	if err != nil && !errors.Is(err, diversity.ErrSamplingExhausted) {
		return nil, err
	}

	resp := &dto.DiversityReportResponse{
		CourseID:   courseID,
		Attributes: diversity.AttributeKeys(students, attrsOf),
		Report:     report,
	}
	if err != nil {
		s.logger.Info("分组多样性无有效得分",
			zap.String("course_id", courseID),
			zap.Int("group_size", groupSize),
			zap.Int("evaluated", report.Evaluated),
		)
		return resp, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, resp, s.ttl); err != nil {
			s.logger.Warn("写入多样性报告缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// ────────────────────── Invalidate ──────────────────────

// Invalidate 名册变化后清除课程全部分组规模的报告缓存
func (s *diversityService) Invalidate(ctx context.Context, courseID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPrefix(ctx, diversityCachePrefix(courseID)); err != nil {
		s.logger.Error("清除多样性报告缓存失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// newRand 每次分析使用独立的随机源；配置了种子时结果可复现
func (s *diversityService) newRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
