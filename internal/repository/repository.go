package repository

import (
	"context"

	"gorm.io/gorm"

	"colab/backend/internal/timeline"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Course   CourseRepository
	Activity ActivityRepository
	Roster   RosterRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		Course:   NewCourseRepo(db),
		Activity: NewActivityRepo(db),
		Roster:   NewRosterRepo(db),
	}
}

// Atomic 在一个事务内执行 fn，fn 返回错误时整体回滚。
// 已处于事务中时 GORM 使用 SAVEPOINT 嵌套。
func (r *Repository) Atomic(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// TimelineAtomic 供时区迁移使用的事务作用域：活动的加载与保存都在同一事务内
func (r *Repository) TimelineAtomic() timeline.AtomicFunc {
	return func(ctx context.Context, fn func(ctx context.Context, store timeline.Store) error) error {
		return r.Atomic(ctx, func(txRepo *Repository) error {
			return fn(ctx, txRepo.Activity)
		})
	}
}

// auditor 审计人 ID；为空（如系统任务）时写入 NULL
func auditor(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
