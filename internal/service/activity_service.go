package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
)

// ── 活动模块业务错误 ──

var (
	ErrActivityNotFound     = errors.New("活动不存在")
	ErrInvalidKind          = errors.New("未知的活动类别")
	ErrActivityNameRequired = errors.New("活动名称不能为空")
	ErrLinkedProjectInvalid = errors.New("关联的项目不存在或不属于同一课程")
)

// ActivityService 课程活动业务接口（项目、作业、体验活动、宾果游戏）
type ActivityService interface {
	List(ctx context.Context, courseID string) ([]dto.ActivityResponse, error)
	GetByID(ctx context.Context, kind, id string) (*dto.ActivityResponse, error)
	Create(ctx context.Context, courseID, kind string, req *dto.ActivityRequest, callerID string) (*dto.ActivityResponse, error)
	Update(ctx context.Context, kind, id string, req *dto.ActivityRequest, callerID string) (*dto.ActivityResponse, error)
	Delete(ctx context.Context, kind, id string, callerID string) error
	Availability(ctx context.Context, projectID string, now time.Time) (*dto.AvailabilityResponse, error)
}

type activityService struct {
	repo   *repository.Repository
	zones  timeline.Zones
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, zones timeline.Zones, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, zones: zones, logger: logger}
}

// ────────────────────── List ──────────────────────

// List 课程下全部活动，按结束时间升序混排
func (s *activityService) List(ctx context.Context, courseID string) ([]dto.ActivityResponse, error) {
	course, loc, err := s.getCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}

	activities, err := s.repo.Activity.ListByCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("查询课程活动失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		result = append(result, toActivityResponse(a, loc))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *activityService) GetByID(ctx context.Context, kind, id string) (*dto.ActivityResponse, error) {
	k, ok := timeline.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	activity, err := s.getActivity(ctx, s.repo, k, id)
	if err != nil {
		return nil, err
	}
	_, loc, err := s.getCourse(ctx, s.repo, activity.OwningCourseID())
	if err != nil {
		return nil, err
	}

	resp := toActivityResponse(activity, loc)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

// Create 在课程下创建活动：缺省起止时间取课程的起止时间，随后按课程区间校验
func (s *activityService) Create(ctx context.Context, courseID, kind string, req *dto.ActivityRequest, callerID string) (*dto.ActivityResponse, error) {
	k, ok := timeline.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	if req.Name == nil || *req.Name == "" {
		return nil, ErrActivityNameRequired
	}

	var resp dto.ActivityResponse
	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		course, loc, err := s.getCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}

		activity, _ := model.NewActivity(k)
		activity.AssignCourse(course.CourseID)
		if err := s.applyRequest(ctx, tx, activity, req, loc); err != nil {
			return err
		}
		if err := s.checkDates(activity, course); err != nil {
			return err
		}

		setAuditor(activity, callerID, true)
		if err := tx.Activity.Create(ctx, activity); err != nil {
			s.logger.Error("创建活动失败",
				zap.String("course_id", courseID),
				zap.String("kind", string(k)),
				zap.Error(err),
			)
			return err
		}
		resp = toActivityResponse(activity, loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *activityService) Update(ctx context.Context, kind, id string, req *dto.ActivityRequest, callerID string) (*dto.ActivityResponse, error) {
	k, ok := timeline.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	if req.Name != nil && *req.Name == "" {
		return nil, ErrActivityNameRequired
	}

	var resp dto.ActivityResponse
	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		activity, err := s.getActivity(ctx, tx, k, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != activity.LockVersion() {
			return pkgerrors.ErrOptimisticLock
		}
		course, loc, err := s.getCourse(ctx, tx, activity.OwningCourseID())
		if err != nil {
			return err
		}

		if err := s.applyRequest(ctx, tx, activity, req, loc); err != nil {
			return err
		}
		if err := s.checkDates(activity, course); err != nil {
			return err
		}

		setAuditor(activity, callerID, false)
		if err := tx.Activity.Update(ctx, activity); err != nil {
			if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Error("更新活动失败", zap.String("activity_id", id), zap.Error(err))
			}
			return err
		}
		resp = toActivityResponse(activity, loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *activityService) Delete(ctx context.Context, kind, id string, callerID string) error {
	k, ok := timeline.ParseKind(kind)
	if !ok {
		return ErrInvalidKind
	}

	// 删除项目时同一事务内解除宾果游戏与作业对它的引用
	return s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		if _, err := s.getActivity(ctx, tx, k, id); err != nil {
			return err
		}
		if k == timeline.KindProject {
			if err := tx.Activity.UnlinkProject(ctx, id); err != nil {
				s.logger.Error("解除项目引用失败", zap.String("project_id", id), zap.Error(err))
				return err
			}
		}
		if err := tx.Activity.Delete(ctx, k, id, callerID); err != nil {
			s.logger.Error("删除活动失败", zap.String("activity_id", id), zap.Error(err))
			return err
		}
		return nil
	})
}

// ────────────────────── Availability ──────────────────────

// Availability 项目在 now 时刻能否提交；星期按课程时区判断
func (s *activityService) Availability(ctx context.Context, projectID string, now time.Time) (*dto.AvailabilityResponse, error) {
	activity, err := s.getActivity(ctx, s.repo, timeline.KindProject, projectID)
	if err != nil {
		return nil, err
	}
	project := activity.(*model.Project)

	_, loc, err := s.getCourse(ctx, s.repo, project.CourseID)
	if err != nil {
		return nil, err
	}

	days := project.DaysApplicable()
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}

	return &dto.AvailabilityResponse{
		ProjectID:      project.ProjectID,
		Available:      project.IsAvailable(now, loc),
		Active:         project.Active,
		InDateRange:    project.DateRange().Contains(now),
		DaysApplicable: names,
		Timezone:       loc.String(),
		CheckedAt:      now.In(loc).Format(time.RFC3339),
	}, nil
}

// ── 内部方法 ──

func (s *activityService) getCourse(ctx context.Context, repo *repository.Repository, id string) (*model.Course, *time.Location, error) {
	course, err := repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, nil, err
	}
	loc, err := s.zones.Location(course.Timezone)
	if err != nil {
		return nil, nil, ErrInvalidTimezone
	}
	return course, loc, nil
}

func (s *activityService) getActivity(ctx context.Context, repo *repository.Repository, kind timeline.Kind, id string) (model.CourseActivity, error) {
	activity, err := repo.Activity.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		s.logger.Error("查询活动失败", zap.String("kind", string(kind)), zap.String("activity_id", id), zap.Error(err))
		return nil, err
	}
	return activity, nil
}

// checkDates 缺省起止时间取课程的起止时间（写回活动），随后按课程区间校验
func (s *activityService) checkDates(activity model.CourseActivity, course *model.Course) error {
	parent := course.Dates().Range
	activity.SetDateRange(timeline.WithDefaults(activity.DateRange(), parent))
	return timeline.ValidateActivityDates(activity, parent).Err()
}

// applyRequest 将请求写入活动。纯日期的起止时间取课程时区当天的 00:00 与 23:59。
func (s *activityService) applyRequest(ctx context.Context, repo *repository.Repository, activity model.CourseActivity, req *dto.ActivityRequest, loc *time.Location) error {
	r := activity.DateRange()
	if req.StartDate != nil {
		if *req.StartDate == "" {
			r.Start = time.Time{}
		} else {
			t, _, err := parseDate(*req.StartDate, loc)
			if err != nil {
				return err
			}
			r.Start = t
		}
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			r.End = time.Time{}
		} else {
			t, dateOnly, err := parseDate(*req.EndDate, loc)
			if err != nil {
				return err
			}
			if dateOnly {
				t = timeline.LocalEndOfDay(t, loc)
			}
			r.End = t
		}
	}
	activity.SetDateRange(r)

	switch a := activity.(type) {
	case *model.Project:
		setString(&a.Name, req.Name)
		setString(&a.Description, req.Description)
		setBool(&a.Active, req.Active)
		setInt(&a.StartDOW, req.StartDOW)
		setInt(&a.EndDOW, req.EndDOW)
		setInt(&a.StyleID, req.StyleID)
		if req.FactorPackID != nil {
			a.FactorPackID = req.FactorPackID
		}
		return a.Window().Validate()

	case *model.Assignment:
		setString(&a.Name, req.Name)
		setString(&a.Description, req.Description)
		setBool(&a.Active, req.Active)
		setBool(&a.GroupEnabled, req.GroupEnabled)
		setBool(&a.FileSub, req.FileSub)
		setBool(&a.LinkSub, req.LinkSub)
		setBool(&a.TextSub, req.TextSub)
		setInt(&a.Passing, req.Passing)
		if req.RubricID != nil {
			a.RubricID = req.RubricID
		}
		if req.ProjectID != nil {
			if err := s.checkLinkedProject(ctx, repo, a.CourseID, *req.ProjectID); err != nil {
				return err
			}
			a.SetLinkedActivityID(*req.ProjectID)
		}

	case *model.Experience:
		setString(&a.Name, req.Name)
		setString(&a.Instructions, req.Instructions)
		setBool(&a.Active, req.Active)
		setInt(&a.LeadTime, req.LeadTime)

	case *model.BingoGame:
		setString(&a.Topic, req.Name)
		setString(&a.Description, req.Description)
		setBool(&a.Active, req.Active)
		setInt(&a.IndividualCount, req.IndividualCount)
		setInt(&a.LeadTime, req.LeadTime)
		setBool(&a.GroupOption, req.GroupOption)
		setInt(&a.GroupDiscount, req.GroupDiscount)
		setString(&a.Link, req.Link)
		setString(&a.Source, req.Source)
		if req.ProjectID != nil {
			if err := s.checkLinkedProject(ctx, repo, a.CourseID, *req.ProjectID); err != nil {
				return err
			}
			a.SetLinkedActivityID(*req.ProjectID)
		}
	}
	return nil
}

// checkLinkedProject 关联项目必须存在且属于同一课程；空 ID 表示解除关联
func (s *activityService) checkLinkedProject(ctx context.Context, repo *repository.Repository, courseID, projectID string) error {
	if projectID == "" {
		return nil
	}
	project, err := repo.Activity.GetByID(ctx, timeline.KindProject, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkedProjectInvalid
		}
		s.logger.Error("查询关联项目失败", zap.String("project_id", projectID), zap.Error(err))
		return err
	}
	if project.OwningCourseID() != courseID {
		return ErrLinkedProjectInvalid
	}
	return nil
}

func toActivityResponse(a model.CourseActivity, loc *time.Location) dto.ActivityResponse {
	r := a.DateRange()
	resp := dto.ActivityResponse{
		ID:        a.ActivityID(),
		Kind:      string(a.ActivityKind()),
		Name:      a.ActivityName(),
		CourseID:  a.OwningCourseID(),
		StartDate: formatLocal(&r.Start, loc),
		EndDate:   formatLocal(&r.End, loc),
		Version:   a.LockVersion(),
		Detail:    a,
	}
	if l, ok := a.(timeline.Linked); ok {
		resp.ProjectID = l.LinkedActivityID()
	}
	return resp
}

func setAuditor(a model.CourseActivity, callerID string, created bool) {
	var base *model.BaseModel
	switch v := a.(type) {
	case *model.Project:
		base = &v.BaseModel
	case *model.Assignment:
		base = &v.BaseModel
	case *model.Experience:
		base = &v.BaseModel
	case *model.BingoGame:
		base = &v.BaseModel
	default:
		return
	}
	if created {
		base.CreatedBy = &callerID
	}
	base.UpdatedBy = &callerID
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
