package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"colab/backend/internal/model"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
)

// ActivityRepository 课程活动数据访问接口（四类活动分表存储）。
// LoadActivities / SaveActivity 同时满足 timeline.Store，供时区迁移使用。
type ActivityRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseActivity, error)
	GetByID(ctx context.Context, kind timeline.Kind, id string) (model.CourseActivity, error)
	Create(ctx context.Context, activity model.CourseActivity) error
	Update(ctx context.Context, activity model.CourseActivity) error
	Delete(ctx context.Context, kind timeline.Kind, id string, deletedBy string) error
	DeleteByCourse(ctx context.Context, courseID string, deletedBy string) error
	UnlinkProject(ctx context.Context, projectID string) error

	LoadActivities(ctx context.Context, courseID string) ([]timeline.Activity, error)
	SaveActivity(ctx context.Context, activity timeline.Activity) error
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

// listKind 查询某一类活动并转换为接口切片
func listKind[T any, P interface {
	*T
	model.CourseActivity
}](db *gorm.DB, courseID string) ([]model.CourseActivity, error) {
	var rows []T
	if err := db.Where("course_id = ?", courseID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.CourseActivity, 0, len(rows))
	for i := range rows {
		out = append(out, P(&rows[i]))
	}
	return out, nil
}

// ListByCourse 合并四张活动表，按结束时间升序
func (r *activityRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseActivity, error) {
	db := r.db.WithContext(ctx)
	loaders := []func(*gorm.DB, string) ([]model.CourseActivity, error){
		listKind[model.Project],
		listKind[model.Experience],
		listKind[model.BingoGame],
		listKind[model.Assignment],
	}

	var all []model.CourseActivity
	for _, load := range loaders {
		rows, err := load(db, courseID)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	timeline.SortByEndDate(all)
	return all, nil
}

func (r *activityRepo) GetByID(ctx context.Context, kind timeline.Kind, id string) (model.CourseActivity, error) {
	activity, ok := model.NewActivity(kind)
	if !ok {
		return nil, fmt.Errorf("未知活动类别 %q", kind)
	}
	err := r.db.WithContext(ctx).
		Where(activity.KeyColumn()+" = ?", id).
		First(activity).Error
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (r *activityRepo) Create(ctx context.Context, activity model.CourseActivity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// Update 乐观锁整行更新：version 不匹配时返回 ErrOptimisticLock
func (r *activityRepo) Update(ctx context.Context, activity model.CourseActivity) error {
	oldVersion := activity.LockVersion()
	activity.SetLockVersion(oldVersion + 1)
	result := r.db.WithContext(ctx).
		Model(activity).
		Where("version = ?", oldVersion).
		Select("*").
		Omit(clause.Associations, activity.KeyColumn(), "created_at", "created_by", "deleted_at", "deleted_by").
		Updates(activity)
	if result.Error != nil {
		activity.SetLockVersion(oldVersion)
		return result.Error
	}
	if result.RowsAffected == 0 {
		activity.SetLockVersion(oldVersion)
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *activityRepo) Delete(ctx context.Context, kind timeline.Kind, id string, deletedBy string) error {
	activity, ok := model.NewActivity(kind)
	if !ok {
		return fmt.Errorf("未知活动类别 %q", kind)
	}
	return r.db.WithContext(ctx).
		Model(activity).
		Where(activity.KeyColumn()+" = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": auditor(deletedBy),
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// UnlinkProject 清空指向该项目的宾果游戏与作业的 project_id
func (r *activityRepo) UnlinkProject(ctx context.Context, projectID string) error {
	for _, table := range []interface{}{&model.BingoGame{}, &model.Assignment{}} {
		err := r.db.WithContext(ctx).
			Model(table).
			Where("project_id = ?", projectID).
			Update("project_id", nil).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *activityRepo) DeleteByCourse(ctx context.Context, courseID string, deletedBy string) error {
	for _, table := range model.ActivityTables() {
		err := r.db.WithContext(ctx).
			Model(table).
			Where("course_id = ?", courseID).
			Updates(map[string]interface{}{
				"deleted_by": auditor(deletedBy),
				"deleted_at": gorm.Expr("NOW()"),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ── timeline.Store ──

func (r *activityRepo) LoadActivities(ctx context.Context, courseID string) ([]timeline.Activity, error) {
	rows, err := r.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]timeline.Activity, 0, len(rows))
	for _, a := range rows {
		out = append(out, a)
	}
	return out, nil
}

// SaveActivity 只写回起止时间，不做校验
func (r *activityRepo) SaveActivity(ctx context.Context, activity timeline.Activity) error {
	ca, ok := activity.(model.CourseActivity)
	if !ok {
		return fmt.Errorf("不支持持久化的活动类型 %T", activity)
	}
	dates := ca.DateRange()
	result := r.db.WithContext(ctx).
		Table(ca.TableName()).
		Where(ca.KeyColumn()+" = ?", ca.ActivityID()).
		Updates(map[string]interface{}{
			"start_date": nullableTime(dates.Start),
			"end_date":   nullableTime(dates.End),
			"version":    gorm.Expr("version + 1"),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	ca.SetLockVersion(ca.LockVersion() + 1)
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
