package timeline

import "sort"

// Kind 活动种类
type Kind string

const (
	KindProject    Kind = "project"
	KindAssignment Kind = "assignment"
	KindExperience Kind = "experience"
	KindBingoGame  Kind = "bingo_game"
)

// Kinds 全部活动种类，同时也是克隆顺序：被引用的项目必须最先克隆
var Kinds = []Kind{KindProject, KindExperience, KindBingoGame, KindAssignment}

// ParseKind 解析活动种类，兼容复数与连字符写法（projects、bingo-games）
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "project", "projects":
		return KindProject, true
	case "assignment", "assignments":
		return KindAssignment, true
	case "experience", "experiences":
		return KindExperience, true
	case "bingo_game", "bingo_games", "bingo-game", "bingo-games":
		return KindBingoGame, true
	}
	return "", false
}

// Label 用于提示信息的中文名称
func (k Kind) Label() string {
	switch k {
	case KindProject:
		return "项目"
	case KindAssignment:
		return "作业"
	case KindExperience:
		return "体验活动"
	case KindBingoGame:
		return "宾果游戏"
	}
	return "活动"
}

func (k Kind) cloneRank() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// Activity 有起止时间的课程活动（项目、作业、体验活动、宾果游戏）。
// 校验、时区迁移与克隆只通过该接口操作活动，不关心具体种类。
type Activity interface {
	ActivityID() string
	ActivityKind() Kind
	ActivityName() string
	DateRange() Range
	SetDateRange(r Range)
	// CloneActivity 复制种类特有属性并使用新 ID；不携带所属课程
	CloneActivity(newID string) Activity
}

// Linked 引用了同课程另一活动的活动（宾果游戏、作业 → 项目）
type Linked interface {
	LinkedActivityID() string
	SetLinkedActivityID(id string)
}

// SortByEndDate 按结束时间升序排列（稳定排序），缺少结束时间的排在最后
func SortByEndDate[A Activity](activities []A) {
	sort.SliceStable(activities, func(i, j int) bool {
		ei, ej := activities[i].DateRange().End, activities[j].DateRange().End
		if ei.IsZero() || ej.IsZero() {
			return !ei.IsZero() && ej.IsZero()
		}
		return ei.Before(ej)
	})
}
