package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"colab/backend/config"
	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound  = errors.New("课程不存在")
	ErrInvalidTimezone = errors.New("无效的时区")
	ErrInvalidDate     = errors.New("日期格式无效，应为 YYYY-MM-DD 或 RFC3339")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	Clone(ctx context.Context, id string, req *dto.CloneCourseRequest, callerID string) (*dto.CloneCourseResponse, error)
	Validate(ctx context.Context, id string) (*dto.ValidationReport, error)
}

type courseService struct {
	repo       *repository.Repository
	zones      timeline.Zones
	normalizer *timeline.Normalizer
	cloner     *timeline.Cloner
	namePrefix string
	cache      ReportCache
	logger     *zap.Logger
}

// NewCourseService 创建 CourseService 实例；cache 为 nil 时不做报告缓存失效
func NewCourseService(
	cfg *config.CloneConfig,
	repo *repository.Repository,
	zones timeline.Zones,
	cloner *timeline.Cloner,
	cache ReportCache,
	logger *zap.Logger,
) CourseService {
	return &courseService{
		repo:       repo,
		zones:      zones,
		normalizer: timeline.NewNormalizer(zones),
		cloner:     cloner,
		namePrefix: cfg.NamePrefix,
		cache:      cache,
		logger:     logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	loc, err := s.zones.Location(req.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	start, _, err := parseDate(req.StartDate, time.UTC)
	if err != nil {
		return nil, err
	}
	end, _, err := parseDate(req.EndDate, loc)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Name:          req.Name,
		Number:        req.Number,
		Description:   req.Description,
		Timezone:      loc.String(),
		ConsentFormID: req.ConsentFormID,
	}
	dates := timeline.CourseDates{Timezone: course.Timezone, Range: timeline.NewRange(start, end)}
	if err := s.normalizer.Normalize(ctx, &dates, nil, nil); err != nil {
		return nil, err
	}
	course.SetDates(dates)

	if err := timeline.ValidateCourseDates(dates.Range, nil).Err(); err != nil {
		return nil, err
	}

	course.CreatedBy = &callerID
	course.UpdatedBy = &callerID
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.String("name", course.Name), zap.Error(err))
		return nil, err
	}

	return s.toCourseResponse(course), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return s.toCourseResponse(course), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *s.toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 修改课程。规范化、时区迁移、双向日期校验与保存在同一事务内完成，
// 任一步失败（包括迁移中途失败）都不会留下部分写入。
func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	var updated *model.Course

	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		course, err := s.getCourse(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != course.Version {
			return pkgerrors.ErrOptimisticLock
		}

		prev := course.Dates()
		next := prev

		if req.Name != nil {
			course.Name = *req.Name
		}
		if req.Number != nil {
			course.Number = *req.Number
		}
		if req.Description != nil {
			course.Description = *req.Description
		}
		if req.ConsentFormID != nil {
			course.ConsentFormID = stringOrNil(*req.ConsentFormID)
		}
		if req.Timezone != nil {
			loc, err := s.zones.Location(*req.Timezone)
			if err != nil {
				return ErrInvalidTimezone
			}
			next.Timezone = loc.String()
		}

		loc, err := s.zones.Location(next.Timezone)
		if err != nil {
			return ErrInvalidTimezone
		}
		if req.StartDate != nil {
			if next.Start, _, err = parseDate(*req.StartDate, time.UTC); err != nil {
				return err
			}
		}
		if req.EndDate != nil {
			if next.End, _, err = parseDate(*req.EndDate, loc); err != nil {
				return err
			}
		}

		if err := s.normalizer.Normalize(ctx, &next, &prev, tx.TimelineAtomic()); err != nil {
			s.logger.Error("课程时区规范化失败", zap.String("course_id", id), zap.Error(err))
			return err
		}
		course.SetDates(next)

		activities, err := tx.Activity.LoadActivities(ctx, id)
		if err != nil {
			s.logger.Error("查询课程活动失败", zap.String("course_id", id), zap.Error(err))
			return err
		}
		if err := timeline.ValidateCourseDates(next.Range, activities).Err(); err != nil {
			return err
		}

		course.UpdatedBy = &callerID
		if err := tx.Course.Update(ctx, course); err != nil {
			if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Error("更新课程失败", zap.String("course_id", id), zap.Error(err))
			}
			return err
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toCourseResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除课程及其全部活动
func (s *courseService) Delete(ctx context.Context, id string, callerID string) error {
	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		if _, err := s.getCourse(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Activity.DeleteByCourse(ctx, id, callerID); err != nil {
			s.logger.Error("删除课程活动失败", zap.String("course_id", id), zap.Error(err))
			return err
		}
		if err := tx.Course.Delete(ctx, id, callerID); err != nil {
			s.logger.Error("删除课程失败", zap.String("course_id", id), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPrefix(ctx, diversityCachePrefix(id)); err != nil {
			s.logger.Warn("清除多样性报告缓存失败", zap.String("course_id", id), zap.Error(err))
		}
	}
	return nil
}

// ────────────────────── Clone ──────────────────────

// Clone 将课程连同全部活动与教学人员平移到 new_start 开始的新课程。
// 新课程、活动与名册在同一事务内写入，任一失败整体回滚并返回 CloneError。
func (s *courseService) Clone(ctx context.Context, id string, req *dto.CloneCourseRequest, callerID string) (*dto.CloneCourseResponse, error) {
	var resp *dto.CloneCourseResponse

	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		src, err := s.getCourse(ctx, tx, id)
		if err != nil {
			return err
		}
		loc, err := s.zones.Location(src.Timezone)
		if err != nil {
			return ErrInvalidTimezone
		}
		newStart, _, err := parseDate(req.NewStart, loc)
		if err != nil {
			return err
		}

		activities, err := tx.Activity.LoadActivities(ctx, id)
		if err != nil {
			s.logger.Error("查询课程活动失败", zap.String("course_id", id), zap.Error(err))
			return err
		}

		plan, err := s.cloner.Clone(src.Dates(), activities, newStart)
		if err != nil {
			return err
		}

		dup := &model.Course{
			Name:          s.namePrefix + src.Name,
			Number:        prefixed(s.namePrefix, src.Number),
			Description:   src.Description,
			ConsentFormID: src.ConsentFormID,
		}
		dup.SetDates(timeline.CourseDates{Timezone: src.Timezone, Range: plan.Dates})
		if err := timeline.ValidateCourseDates(plan.Dates, plan.Activities()).Err(); err != nil {
			return &timeline.CloneError{EntityID: src.CourseID, Err: err}
		}
		dup.CreatedBy = &callerID
		dup.UpdatedBy = &callerID
		if err := tx.Course.Create(ctx, dup); err != nil {
			s.logger.Error("克隆课程失败", zap.String("course_id", id), zap.Error(err))
			return &timeline.CloneError{EntityID: src.CourseID, Err: err}
		}

		for _, entry := range plan.Entries {
			activity, ok := entry.Activity.(model.CourseActivity)
			if !ok {
				return &timeline.CloneError{
					Kind:     entry.Activity.ActivityKind(),
					EntityID: entry.SourceID,
					Err:      fmt.Errorf("不支持持久化的活动类型 %T", entry.Activity),
				}
			}
			activity.AssignCourse(dup.CourseID)
			if err := tx.Activity.Create(ctx, activity); err != nil {
				s.logger.Error("克隆活动失败",
					zap.String("course_id", id),
					zap.String("activity_id", entry.SourceID),
					zap.Error(err),
				)
				return &timeline.CloneError{Kind: activity.ActivityKind(), EntityID: entry.SourceID, Err: err}
			}
		}

		faculty, err := tx.Roster.ListByCourse(ctx, id, model.FacultyRoles...)
		if err != nil {
			s.logger.Error("查询教学人员失败", zap.String("course_id", id), zap.Error(err))
			return err
		}
		copies := make([]model.Roster, 0, len(faculty))
		for _, r := range faculty {
			copies = append(copies, model.Roster{
				CourseID: dup.CourseID,
				UserID:   r.UserID,
				Role:     r.Role,
				Profile:  r.Profile,
			})
		}
		if err := tx.Roster.BatchCreate(ctx, copies); err != nil {
			s.logger.Error("复制教学人员失败", zap.String("course_id", id), zap.Error(err))
			return &timeline.CloneError{EntityID: src.CourseID, Err: err}
		}

		resp = &dto.CloneCourseResponse{
			Course:        *s.toCourseResponse(dup),
			DayOffset:     plan.DayOffset,
			ActivityCount: len(plan.Entries),
			RosterCount:   len(copies),
			IDMap:         plan.IDMap,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("课程克隆完成",
		zap.String("source_id", id),
		zap.String("course_id", resp.Course.ID),
		zap.Int("day_offset", resp.DayOffset),
	)
	return resp, nil
}

// ────────────────────── Validate ──────────────────────

// Validate 汇总课程日期问题：课程自身与活动嵌套（课程侧），以及每个活动自身的检查（活动侧）
func (s *courseService) Validate(ctx context.Context, id string) (*dto.ValidationReport, error) {
	course, err := s.getCourse(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.Activity.LoadActivities(ctx, id)
	if err != nil {
		s.logger.Error("查询课程活动失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	dates := course.Dates()
	report := &dto.ValidationReport{CourseID: id, Issues: []dto.ValidationIssue{}}
	report.Issues = appendIssues(report.Issues, "course", id, timeline.ValidateCourseDates(dates.Range, activities))
	for _, a := range activities {
		errs := timeline.ValidateActivityDates(a, dates.Range)
		report.Issues = appendIssues(report.Issues, string(a.ActivityKind()), a.ActivityID(), errs)
	}
	report.Valid = len(report.Issues) == 0
	return report, nil
}

// ── 内部方法 ──

func (s *courseService) getCourse(ctx context.Context, repo *repository.Repository, id string) (*model.Course, error) {
	course, err := repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) toCourseResponse(c *model.Course) *dto.CourseResponse {
	loc, err := s.zones.Location(c.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &dto.CourseResponse{
		ID:            c.CourseID,
		Name:          c.Name,
		Number:        c.Number,
		Description:   c.Description,
		Timezone:      c.Timezone,
		StartDate:     formatLocal(c.StartDate, loc),
		EndDate:       formatLocal(c.EndDate, loc),
		ConsentFormID: c.ConsentFormID,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
}

func appendIssues(issues []dto.ValidationIssue, entity, entityID string, errs timeline.ValidationErrors) []dto.ValidationIssue {
	for _, e := range errs {
		issues = append(issues, dto.ValidationIssue{
			Entity:   entity,
			EntityID: entityID,
			Field:    e.Field,
			Kind:     e.Kind.String(),
			Message:  e.Message,
		})
	}
	return issues
}

// ── 日期解析与格式化 ──

const dateLayout = "2006-01-02"

// parseDate 解析 "2006-01-02"（loc 中当天 00:00）或 RFC3339；dateOnly 表示输入只有日期
func parseDate(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, false, nil
}

// formatLocal 以 loc 时区输出 RFC3339，空值输出空字符串
func formatLocal(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
