package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/repository"
)

// ErrInvalidProfile 画像无法序列化为 JSON 对象
var ErrInvalidProfile = errors.New("学生画像格式无效")

// RosterService 课程名册业务接口
type RosterService interface {
	List(ctx context.Context, courseID string, roles []string) ([]dto.RosterResponse, error)
	Import(ctx context.Context, courseID string, req *dto.ImportRosterRequest, callerID string) ([]dto.RosterResponse, error)
}

type rosterService struct {
	repo      *repository.Repository
	diversity DiversityService
	logger    *zap.Logger
}

// NewRosterService 创建 RosterService 实例；名册变化后通过 diversity 清除报告缓存
func NewRosterService(repo *repository.Repository, diversity DiversityService, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, diversity: diversity, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *rosterService) List(ctx context.Context, courseID string, roles []string) ([]dto.RosterResponse, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	rosters, err := s.repo.Roster.ListByCourse(ctx, courseID, roles...)
	if err != nil {
		s.logger.Error("查询课程名册失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RosterResponse, 0, len(rosters))
	for i := range rosters {
		result = append(result, toRosterResponse(&rosters[i]))
	}
	return result, nil
}

// ────────────────────── Import ──────────────────────

func (s *rosterService) Import(ctx context.Context, courseID string, req *dto.ImportRosterRequest, callerID string) ([]dto.RosterResponse, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}

	rosters := make([]model.Roster, 0, len(req.Entries))
	for _, e := range req.Entries {
		r := model.Roster{CourseID: courseID, UserID: e.UserID, Role: e.Role}
		if len(e.Profile) > 0 {
			raw, err := json.Marshal(e.Profile)
			if err != nil {
				return nil, ErrInvalidProfile
			}
			r.Profile = datatypes.JSON(raw)
		}
		r.CreatedBy = &callerID
		r.UpdatedBy = &callerID
		rosters = append(rosters, r)
	}

	if err := s.repo.Roster.BatchCreate(ctx, rosters); err != nil {
		s.logger.Error("导入课程名册失败",
			zap.String("course_id", courseID),
			zap.Int("count", len(rosters)),
			zap.Error(err),
		)
		return nil, err
	}

	if s.diversity != nil {
		// 缓存清除失败不影响导入结果，报告将在 TTL 到期后刷新
		_ = s.diversity.Invalidate(ctx, courseID)
	}

	result := make([]dto.RosterResponse, 0, len(rosters))
	for i := range rosters {
		result = append(result, toRosterResponse(&rosters[i]))
	}
	return result, nil
}

// ── 内部方法 ──

func (s *rosterService) ensureCourse(ctx context.Context, courseID string) error {
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

func toRosterResponse(r *model.Roster) dto.RosterResponse {
	resp := dto.RosterResponse{
		ID:       r.RosterID,
		CourseID: r.CourseID,
		UserID:   r.UserID,
		Role:     r.Role,
	}
	if len(r.Profile) > 0 {
		profile := make(map[string]interface{})
		if err := json.Unmarshal(r.Profile, &profile); err == nil {
			resp.Profile = profile
		}
	}
	return resp
}
