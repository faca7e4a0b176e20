package model

import "colab/backend/internal/timeline"

// 宾果游戏默认值
const (
	DefaultBingoIndividualCount = 20
	DefaultBingoLeadTime        = 3
)

// BingoGame 宾果游戏表 — 对应 bingo_games；可选关联项目（小组游戏）
type BingoGame struct {
	BingoGameID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"bingo_game_id"`
	Topic           string  `gorm:"type:varchar(200);not null"                     json:"topic"`
	Description     string  `gorm:"type:text"                                      json:"description,omitempty"`
	Active          bool    `gorm:"not null;default:false"                         json:"active"`
	IndividualCount int     `gorm:"not null;default:20"                            json:"individual_count"`
	LeadTime        int     `gorm:"not null;default:3"                             json:"lead_time"`
	GroupOption     bool    `gorm:"not null;default:false"                         json:"group_option"`
	GroupDiscount   int     `gorm:"not null;default:0"                             json:"group_discount"`
	Link            string  `gorm:"type:varchar(500)"                              json:"link,omitempty"`
	Source          string  `gorm:"type:varchar(200)"                              json:"source,omitempty"`
	ProjectID       *string `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	ActivityBase
	VersionedModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (BingoGame) TableName() string { return "bingo_games" }

func (b *BingoGame) KeyColumn() string           { return "bingo_game_id" }
func (b *BingoGame) ActivityID() string          { return b.BingoGameID }
func (b *BingoGame) SetActivityID(id string)     { b.BingoGameID = id }
func (b *BingoGame) ActivityKind() timeline.Kind { return timeline.KindBingoGame }
func (b *BingoGame) ActivityName() string        { return b.Topic }
func (b *BingoGame) LinkedActivityID() string    { return derefString(b.ProjectID) }

func (b *BingoGame) SetLinkedActivityID(id string) {
	b.ProjectID = stringPtr(id)
	b.Project = nil
}

// CloneActivity 复制宾果游戏（项目引用由克隆器重新指向）
func (b *BingoGame) CloneActivity(newID string) timeline.Activity {
	dup := *b
	dup.BingoGameID = newID
	dup.Active = false
	dup.Project = nil
	dup.VersionedModel = b.VersionedModel.fresh()
	dup.CourseID = ""
	return &dup
}
