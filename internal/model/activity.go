package model

import "colab/backend/internal/timeline"

// CourseActivity 可持久化的课程活动（项目、作业、体验活动、宾果游戏）
type CourseActivity interface {
	timeline.Activity
	OwningCourseID() string
	AssignCourse(courseID string)
	SetActivityID(id string)
	TableName() string
	// KeyColumn 主键列名
	KeyColumn() string
	LockVersion() int
	SetLockVersion(n int)
}

// NewActivity 按类别创建空白活动，字段默认值与数据库一致
func NewActivity(kind timeline.Kind) (CourseActivity, bool) {
	switch kind {
	case timeline.KindProject:
		return &Project{StyleID: DefaultProjectStyle, StartDOW: DefaultStartDOW, EndDOW: DefaultEndDOW}, true
	case timeline.KindAssignment:
		return &Assignment{Passing: DefaultAssignmentPassing}, true
	case timeline.KindExperience:
		return &Experience{LeadTime: DefaultExperienceLeadTime}, true
	case timeline.KindBingoGame:
		return &BingoGame{IndividualCount: DefaultBingoIndividualCount, LeadTime: DefaultBingoLeadTime}, true
	}
	return nil, false
}

// ActivityTables 全部活动表，顺序即克隆顺序
func ActivityTables() []CourseActivity {
	out := make([]CourseActivity, 0, len(timeline.Kinds))
	for _, k := range timeline.Kinds {
		a, _ := NewActivity(k)
		out = append(out, a)
	}
	return out
}
