package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"colab/backend/config"
	"colab/backend/internal/dto"
	"colab/backend/internal/model"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
)

// ── 测试辅助 ──

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("加载时区 %s 失败: %v", name, err)
	}
	return loc
}

func timeRef(t time.Time) *time.Time { return &t }

func strRef(s string) *string { return &s }

func intRef(n int) *int { return &n }

func boolRef(b bool) *bool { return &b }

func setupTestCourseService() (CourseService, *mockRepos, *mockReportCache) {
	repo, m := newMockRepository()
	cache := newMockReportCache()
	zones := timeline.NewZoneCache()
	seq := 0
	cloner := timeline.NewCloner(zones, func() string {
		seq++
		return fmt.Sprintf("new-%d", seq)
	})
	svc := NewCourseService(&config.CloneConfig{NamePrefix: "Copy of "}, repo, zones, cloner, cache, zap.NewNop())
	return svc, m, cache
}

// seedCourse 课程 c1：2024-01-08 ~ 2024-02-28（America/Chicago），
// 含项目 p1、体验活动 e1、关联 p1 的宾果游戏 b1，以及一名教师和一名学生
func seedCourse(t *testing.T, m *mockRepos) *time.Location {
	t.Helper()
	loc := mustLoc(t, "America/Chicago")

	c := &model.Course{
		CourseID:  "c1",
		Name:      "统计学",
		Number:    "STAT-101",
		Timezone:  "America/Chicago",
		StartDate: timeRef(time.Date(2024, 1, 8, 0, 0, 0, 0, loc)),
		EndDate:   timeRef(time.Date(2024, 2, 28, 23, 59, 0, 0, loc)),
	}
	c.Version = 1
	m.course.courses[c.CourseID] = c

	p1 := &model.Project{ProjectID: "p1", Name: "小组项目", Active: true, StyleID: 2, StartDOW: 5, EndDOW: 1}
	p1.CourseID = "c1"
	p1.Version = 1
	p1.SetDateRange(timeline.NewRange(time.Date(2024, 1, 8, 0, 0, 0, 0, loc), time.Date(2024, 1, 31, 23, 59, 0, 0, loc)))

	e1 := &model.Experience{ExperienceID: "e1", Name: "课堂体验", Active: true, LeadTime: 3}
	e1.CourseID = "c1"
	e1.Version = 1
	e1.SetDateRange(timeline.NewRange(time.Date(2024, 2, 1, 0, 0, 0, 0, loc), time.Date(2024, 2, 14, 23, 59, 0, 0, loc)))

	b1 := &model.BingoGame{BingoGameID: "b1", Topic: "概率论", Active: true, IndividualCount: 20, LeadTime: 3, ProjectID: strRef("p1")}
	b1.CourseID = "c1"
	b1.Version = 1
	b1.SetDateRange(timeline.NewRange(time.Date(2024, 1, 15, 0, 0, 0, 0, loc), time.Date(2024, 1, 31, 23, 59, 0, 0, loc)))

	m.activity.put(p1)
	m.activity.put(e1)
	m.activity.put(b1)

	m.roster.rosters = append(m.roster.rosters,
		model.Roster{RosterID: "r1", CourseID: "c1", UserID: "u-instructor", Role: model.RoleInstructor},
		model.Roster{RosterID: "r2", CourseID: "c1", UserID: "u-student", Role: model.RoleEnrolledStudent},
	)
	return loc
}

// ── Create 测试 ──

func TestCourseService_Create_NormalizesDates(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	req := &dto.CreateCourseRequest{
		Name:      "统计学",
		Timezone:  "America/Chicago",
		StartDate: "2024-01-08",
		EndDate:   "2024-02-28",
	}
	result, err := svc.Create(context.Background(), req, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.StartDate != "2024-01-08T00:00:00-06:00" {
		t.Errorf("期望开始时间为当地 00:00，实际=%s", result.StartDate)
	}
	if result.EndDate != "2024-02-28T23:59:00-06:00" {
		t.Errorf("期望结束时间为当地 23:59，实际=%s", result.EndDate)
	}
	if result.Version != 1 {
		t.Errorf("期望Version=1，实际=%d", result.Version)
	}
}

func TestCourseService_Create_EmptyTimezoneIsUTC(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	result, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Name: "线性代数", StartDate: "2024-01-08", EndDate: "2024-02-28",
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Timezone != "UTC" {
		t.Errorf("期望Timezone=UTC，实际=%s", result.Timezone)
	}
	if result.EndDate != "2024-02-28T23:59:00Z" {
		t.Errorf("期望EndDate=2024-02-28T23:59:00Z，实际=%s", result.EndDate)
	}
}

func TestCourseService_Create_InvalidTimezone(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Name: "线性代数", Timezone: "Mars/Olympus", StartDate: "2024-01-08", EndDate: "2024-02-28",
	}, "admin-001")
	if !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("期望 ErrInvalidTimezone，实际: %v", err)
	}
}

func TestCourseService_Create_BadDateFormat(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Name: "线性代数", StartDate: "01/08/2024", EndDate: "2024-02-28",
	}, "admin-001")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

func TestCourseService_Create_InvertedRange(t *testing.T) {
	svc, m, _ := setupTestCourseService()

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Name: "线性代数", StartDate: "2024-03-01", EndDate: "2024-02-01",
	}, "admin-001")

	var verrs timeline.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("期望 ValidationErrors，实际: %v", err)
	}
	if !verrs.Has(timeline.FieldStartDate, timeline.InvertedRange) {
		t.Errorf("期望 start_date 上的 InvertedRange，实际: %v", verrs)
	}
	if len(m.course.courses) != 0 {
		t.Error("校验失败不应写入课程")
	}
}

// ── GetByID / List 测试 ──

func TestCourseService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestCourseService_GetByID_LocalTime(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	result, err := svc.GetByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if result.StartDate != "2024-01-08T00:00:00-06:00" {
		t.Errorf("期望StartDate=2024-01-08T00:00:00-06:00，实际=%s", result.StartDate)
	}
}

func TestCourseService_List(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("期望1门课程，实际=%d", len(list))
	}
}

// ── Update 测试 ──

func TestCourseService_Update_Fields(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	result, err := svc.Update(context.Background(), "c1", &dto.UpdateCourseRequest{
		Name:    strRef("概率与统计"),
		Version: intRef(1),
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "概率与统计" {
		t.Errorf("期望Name=概率与统计，实际=%s", result.Name)
	}
	if result.Version != 2 {
		t.Errorf("期望Version=2，实际=%d", result.Version)
	}
	if len(m.activity.saved) != 0 {
		t.Errorf("时区未变不应迁移活动，实际保存=%v", m.activity.saved)
	}
}

func TestCourseService_Update_EndBeforeActivity(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	_, err := svc.Update(context.Background(), "c1", &dto.UpdateCourseRequest{
		EndDate: strRef("2024-02-10"),
	}, "admin-001")

	var verrs timeline.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("期望 ValidationErrors，实际: %v", err)
	}
	if !verrs.Has(timeline.FieldEndDate, timeline.OutOfParentBounds) {
		t.Errorf("体验活动结束晚于课程结束，期望 end_date 越界错误，实际: %v", verrs)
	}
	if m.course.courses["c1"].Version != 1 {
		t.Error("校验失败不应更新课程")
	}
}

func TestCourseService_Update_TimezoneMigratesActivities(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)
	ny := mustLoc(t, "America/New_York")

	result, err := svc.Update(context.Background(), "c1", &dto.UpdateCourseRequest{
		Timezone: strRef("America/New_York"),
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.StartDate != "2024-01-08T00:00:00-05:00" {
		t.Errorf("期望开始日期在新时区保持 2024-01-08 00:00，实际=%s", result.StartDate)
	}
	if result.EndDate != "2024-02-28T23:59:00-05:00" {
		t.Errorf("期望结束日期在新时区保持 2024-02-28 23:59，实际=%s", result.EndDate)
	}
	if len(m.activity.saved) != 3 {
		t.Errorf("期望迁移3个活动，实际=%v", m.activity.saved)
	}

	p1 := m.activity.items[activityKey(timeline.KindProject, "p1")]
	want := time.Date(2024, 1, 31, 23, 59, 0, 0, ny)
	if !p1.DateRange().End.Equal(want) {
		t.Errorf("期望项目结束=%v，实际=%v", want, p1.DateRange().End)
	}
}

func TestCourseService_Update_MigrationFailure(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)
	m.activity.failSaveID = "b1"

	_, err := svc.Update(context.Background(), "c1", &dto.UpdateCourseRequest{
		Timezone: strRef("America/New_York"),
	}, "admin-001")

	var merr *timeline.MigrationError
	if !errors.As(err, &merr) {
		t.Fatalf("期望 MigrationError，实际: %v", err)
	}
	if merr.ActivityID != "b1" {
		t.Errorf("期望失败活动=b1，实际=%s", merr.ActivityID)
	}
	if m.course.courses["c1"].Timezone != "America/Chicago" {
		t.Error("迁移失败不应保存新时区")
	}
}

func TestCourseService_Update_VersionConflict(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	_, err := svc.Update(context.Background(), "c1", &dto.UpdateCourseRequest{
		Name:    strRef("过期修改"),
		Version: intRef(7),
	}, "admin-001")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestCourseService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTestCourseService()

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateCourseRequest{Name: strRef("x")}, "admin-001")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestCourseService_Delete(t *testing.T) {
	svc, m, cache := setupTestCourseService()
	seedCourse(t, m)

	if err := svc.Delete(context.Background(), "c1", "admin-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "c1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("删除后期望 ErrCourseNotFound，实际: %v", err)
	}
	if !m.activity.deleted[activityKey(timeline.KindProject, "p1")] {
		t.Error("课程活动应一并删除")
	}
	if len(cache.deletes) != 1 || cache.deletes[0] != "diversity:c1:" {
		t.Errorf("期望清除 diversity:c1: 缓存，实际=%v", cache.deletes)
	}
}

// ── Clone 测试 ──

func TestCourseService_Clone(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	result, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "2024-08-26"}, "admin-001")
	if err != nil {
		t.Fatalf("Clone 应成功: %v", err)
	}

	if result.DayOffset != 231 {
		t.Errorf("期望平移231天，实际=%d", result.DayOffset)
	}
	if result.Course.Name != "Copy of 统计学" {
		t.Errorf("期望Name=Copy of 统计学，实际=%s", result.Course.Name)
	}
	if result.Course.Number != "Copy of STAT-101" {
		t.Errorf("期望Number=Copy of STAT-101，实际=%s", result.Course.Number)
	}
	if result.Course.StartDate != "2024-08-26T00:00:00-05:00" {
		t.Errorf("期望StartDate=2024-08-26T00:00:00-05:00，实际=%s", result.Course.StartDate)
	}
	if result.Course.EndDate != "2024-10-16T23:59:00-05:00" {
		t.Errorf("期望EndDate=2024-10-16T23:59:00-05:00，实际=%s", result.Course.EndDate)
	}
	if result.ActivityCount != 3 {
		t.Errorf("期望复制3个活动，实际=%d", result.ActivityCount)
	}
	if result.RosterCount != 1 {
		t.Errorf("期望只复制1名教学人员，实际=%d", result.RosterCount)
	}
}

func TestCourseService_Clone_RelinksAndShifts(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	loc := seedCourse(t, m)

	result, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "2024-08-26"}, "admin-001")
	if err != nil {
		t.Fatalf("Clone 应成功: %v", err)
	}

	newProjectID := result.IDMap["p1"]
	if newProjectID == "" {
		t.Fatal("IDMap 应包含 p1")
	}
	bingo, ok := m.activity.items[activityKey(timeline.KindBingoGame, result.IDMap["b1"])].(*model.BingoGame)
	if !ok {
		t.Fatal("新宾果游戏应已写入")
	}
	if bingo.LinkedActivityID() != newProjectID {
		t.Errorf("期望宾果游戏指向新项目 %s，实际=%s", newProjectID, bingo.LinkedActivityID())
	}
	if bingo.CourseID != result.Course.ID {
		t.Errorf("期望宾果游戏属于新课程 %s，实际=%s", result.Course.ID, bingo.CourseID)
	}
	if bingo.Active {
		t.Error("克隆出的活动应处于未激活状态")
	}
	wantEnd := time.Date(2024, 9, 18, 23, 59, 0, 0, loc)
	if !bingo.DateRange().End.Equal(wantEnd) {
		t.Errorf("期望宾果游戏结束=%v，实际=%v", wantEnd, bingo.DateRange().End.In(loc))
	}

	var copied []model.Roster
	for _, r := range m.roster.rosters {
		if r.CourseID == result.Course.ID {
			copied = append(copied, r)
		}
	}
	if len(copied) != 1 || copied[0].Role != model.RoleInstructor || copied[0].UserID != "u-instructor" {
		t.Errorf("期望只复制教师名册，实际=%+v", copied)
	}
}

func TestCourseService_Clone_CreateFailure(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)
	m.activity.failCreateKind = timeline.KindBingoGame

	_, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "2024-08-26"}, "admin-001")

	var cerr *timeline.CloneError
	if !errors.As(err, &cerr) {
		t.Fatalf("期望 CloneError，实际: %v", err)
	}
	if cerr.Kind != timeline.KindBingoGame || cerr.EntityID != "b1" {
		t.Errorf("期望失败实体为宾果游戏 b1，实际=%s %s", cerr.Kind, cerr.EntityID)
	}
	if !errors.Is(err, errMockDB) {
		t.Errorf("CloneError 应包装底层错误，实际: %v", err)
	}
}

func TestCourseService_Clone_AfterProjectDeleted(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)
	repo := &repository.Repository{Course: m.course, Activity: m.activity, Roster: m.roster}
	activities := NewActivityService(repo, timeline.NewZoneCache(), zap.NewNop())

	if err := activities.Delete(context.Background(), "project", "p1", "instructor-001"); err != nil {
		t.Fatalf("删除项目失败: %v", err)
	}

	result, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "2024-08-26"}, "admin-001")
	if err != nil {
		t.Fatalf("删除项目后克隆应成功: %v", err)
	}
	if _, ok := result.IDMap["p1"]; ok {
		t.Error("已删除的项目不应被克隆")
	}
	bingo, ok := m.activity.items[activityKey(timeline.KindBingoGame, result.IDMap["b1"])].(*model.BingoGame)
	if !ok {
		t.Fatal("新宾果游戏应已写入")
	}
	if bingo.ProjectID != nil {
		t.Errorf("宾果游戏副本不应保留项目引用，实际=%s", *bingo.ProjectID)
	}
}

func TestCourseService_Clone_ForeignReferenceDropped(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)
	b1 := m.activity.items[activityKey(timeline.KindBingoGame, "b1")].(*model.BingoGame)
	b1.ProjectID = strRef("p-other-course")

	result, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "2024-08-26"}, "admin-001")
	if err != nil {
		t.Fatalf("引用其他课程项目时克隆应成功: %v", err)
	}
	bingo := m.activity.items[activityKey(timeline.KindBingoGame, result.IDMap["b1"])].(*model.BingoGame)
	if bingo.ProjectID != nil {
		t.Errorf("宾果游戏副本不应保留外部引用，实际=%s", *bingo.ProjectID)
	}
	if *b1.ProjectID != "p-other-course" {
		t.Error("源宾果游戏的引用不应被修改")
	}
}

func TestCourseService_Clone_BadStart(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	_, err := svc.Clone(context.Background(), "c1", &dto.CloneCourseRequest{NewStart: "next monday"}, "admin-001")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

// ── Validate 测试 ──

func TestCourseService_Validate_Clean(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	seedCourse(t, m)

	report, err := svc.Validate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}
	if !report.Valid || len(report.Issues) != 0 {
		t.Errorf("期望无问题，实际=%+v", report.Issues)
	}
}

func TestCourseService_Validate_ReportsBothDirections(t *testing.T) {
	svc, m, _ := setupTestCourseService()
	loc := seedCourse(t, m)
	e1 := m.activity.items[activityKey(timeline.KindExperience, "e1")]
	e1.SetDateRange(timeline.NewRange(time.Date(2024, 2, 1, 0, 0, 0, 0, loc), time.Date(2024, 3, 5, 23, 59, 0, 0, loc)))

	report, err := svc.Validate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}
	if report.Valid {
		t.Fatal("体验活动超出课程，报告应无效")
	}

	var courseSide, activitySide bool
	for _, is := range report.Issues {
		if is.Kind != "out_of_parent_bounds" || is.Field != timeline.FieldEndDate {
			t.Errorf("意外的问题: %+v", is)
		}
		switch {
		case is.Entity == "course" && is.EntityID == "c1":
			courseSide = true
		case is.Entity == "experience" && is.EntityID == "e1":
			activitySide = true
		}
	}
	if !courseSide || !activitySide {
		t.Errorf("期望课程侧与活动侧各有一条问题，实际=%+v", report.Issues)
	}
}
