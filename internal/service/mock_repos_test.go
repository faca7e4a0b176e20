package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"colab/backend/internal/model"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
	pkgerrors "colab/backend/pkg/errors"
)

var errMockDB = errors.New("mock: 数据库错误")

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	seq     int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		m.seq++
		course.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	if course.Version == 0 {
		course.Version = 1
	}
	c := *course
	m.courses[course.CourseID] = &c
	return nil
}

// GetByID 返回副本，未经 Update 的修改不会写入存储
func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok || c.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	dup := *c
	return &dup, nil
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		if !c.DeletedAt.Valid {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	stored, ok := m.courses[course.CourseID]
	if !ok || stored.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	c := *course
	m.courses[course.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if c, ok := m.courses[id]; ok {
		c.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		c.DeletedBy = &deletedBy
	}
	return nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	items map[string]model.CourseActivity // "kind:id" → activity
	seq   int

	failCreateKind timeline.Kind // 创建该类别时返回错误
	failSaveID     string        // SaveActivity 遇到该 ID 时返回错误
	saved          []string
	deleted        map[string]bool
	unlinked       []string
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{
		items:   make(map[string]model.CourseActivity),
		deleted: make(map[string]bool),
	}
}

func activityKey(kind timeline.Kind, id string) string {
	return string(kind) + ":" + id
}

func (m *mockActivityRepo) put(a model.CourseActivity) {
	m.items[activityKey(a.ActivityKind(), a.ActivityID())] = a
}

func (m *mockActivityRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseActivity, error) {
	var result []model.CourseActivity
	for _, a := range m.items {
		if a.OwningCourseID() == courseID && !m.deleted[activityKey(a.ActivityKind(), a.ActivityID())] {
			result = append(result, a)
		}
	}
	// map 遍历无序，先按 ID 排定再按结束时间稳定排序
	sortByID(result)
	timeline.SortByEndDate(result)
	return result, nil
}

func (m *mockActivityRepo) GetByID(_ context.Context, kind timeline.Kind, id string) (model.CourseActivity, error) {
	key := activityKey(kind, id)
	a, ok := m.items[key]
	if !ok || m.deleted[key] {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *mockActivityRepo) Create(_ context.Context, a model.CourseActivity) error {
	if m.failCreateKind != "" && a.ActivityKind() == m.failCreateKind {
		return errMockDB
	}
	if a.ActivityID() == "" {
		m.seq++
		a.SetActivityID(fmt.Sprintf("%s-%d", a.ActivityKind(), m.seq))
	}
	if a.LockVersion() == 0 {
		a.SetLockVersion(1)
	}
	m.put(a)
	return nil
}

func (m *mockActivityRepo) Update(_ context.Context, a model.CourseActivity) error {
	if _, ok := m.items[activityKey(a.ActivityKind(), a.ActivityID())]; !ok {
		return pkgerrors.ErrOptimisticLock
	}
	a.SetLockVersion(a.LockVersion() + 1)
	m.put(a)
	return nil
}

func (m *mockActivityRepo) Delete(_ context.Context, kind timeline.Kind, id string, _ string) error {
	m.deleted[activityKey(kind, id)] = true
	return nil
}

func (m *mockActivityRepo) UnlinkProject(_ context.Context, projectID string) error {
	m.unlinked = append(m.unlinked, projectID)
	for _, a := range m.items {
		if l, ok := a.(timeline.Linked); ok && l.LinkedActivityID() == projectID {
			l.SetLinkedActivityID("")
		}
	}
	return nil
}

func (m *mockActivityRepo) DeleteByCourse(_ context.Context, courseID string, _ string) error {
	for key, a := range m.items {
		if a.OwningCourseID() == courseID {
			m.deleted[key] = true
		}
	}
	return nil
}

func (m *mockActivityRepo) LoadActivities(ctx context.Context, courseID string) ([]timeline.Activity, error) {
	rows, _ := m.ListByCourse(ctx, courseID)
	out := make([]timeline.Activity, 0, len(rows))
	for _, a := range rows {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockActivityRepo) SaveActivity(_ context.Context, a timeline.Activity) error {
	if a.ActivityID() == m.failSaveID {
		return errMockDB
	}
	m.saved = append(m.saved, a.ActivityID())
	return nil
}

func sortByID(items []model.CourseActivity) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].ActivityID() < items[j-1].ActivityID(); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// ── Mock RosterRepository ──

type mockRosterRepo struct {
	rosters []model.Roster
	seq     int
	failErr error
}

func newMockRosterRepo() *mockRosterRepo {
	return &mockRosterRepo{}
}

func (m *mockRosterRepo) ListByCourse(_ context.Context, courseID string, roles ...string) ([]model.Roster, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var result []model.Roster
	for _, r := range m.rosters {
		if r.CourseID != courseID {
			continue
		}
		if len(roles) > 0 && !containsString(roles, r.Role) {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (m *mockRosterRepo) BatchCreate(_ context.Context, rosters []model.Roster) error {
	if m.failErr != nil {
		return m.failErr
	}
	for i := range rosters {
		if rosters[i].RosterID == "" {
			m.seq++
			rosters[i].RosterID = fmt.Sprintf("roster-%d", m.seq)
		}
		m.rosters = append(m.rosters, rosters[i])
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ── Mock ReportCache ──

type mockReportCache struct {
	data    map[string][]byte
	sets    int
	deletes []string
}

func newMockReportCache() *mockReportCache {
	return &mockReportCache{data: make(map[string][]byte)}
}

func (m *mockReportCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mockReportCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}

func (m *mockReportCache) DeleteByPrefix(_ context.Context, prefix string) error {
	m.deletes = append(m.deletes, prefix)
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// ── 聚合 ──

type mockRepos struct {
	course   *mockCourseRepo
	activity *mockActivityRepo
	roster   *mockRosterRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		course:   newMockCourseRepo(),
		activity: newMockActivityRepo(),
		roster:   newMockRosterRepo(),
	}
	repo := &repository.Repository{
		Course:   m.course,
		Activity: m.activity,
		Roster:   m.roster,
	}
	return repo, m
}
