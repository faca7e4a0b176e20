package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"colab/backend/internal/model"
)

// RosterRepository 课程名册数据访问接口
type RosterRepository interface {
	// ListByCourse roles 为空时返回全部角色
	ListByCourse(ctx context.Context, courseID string, roles ...string) ([]model.Roster, error)
	// BatchCreate 批量写入；同一课程同一用户已存在时更新角色与画像
	BatchCreate(ctx context.Context, rosters []model.Roster) error
}

type rosterRepo struct {
	db *gorm.DB
}

// NewRosterRepo 创建 RosterRepository 实例
func NewRosterRepo(db *gorm.DB) RosterRepository {
	return &rosterRepo{db: db}
}

func (r *rosterRepo) ListByCourse(ctx context.Context, courseID string, roles ...string) ([]model.Roster, error) {
	var rosters []model.Roster
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	err := query.Order("created_at ASC").Find(&rosters).Error
	return rosters, err
}

func (r *rosterRepo) BatchCreate(ctx context.Context, rosters []model.Roster) error {
	if len(rosters) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "profile", "updated_at", "updated_by"}),
		}).
		Create(&rosters).Error
}
