package timeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// ── 测试辅助 ──

type fakeActivity struct {
	id    string
	name  string
	kind  Kind
	dates Range
	link  string
}

func (f *fakeActivity) ActivityID() string { return f.id }
func (f *fakeActivity) ActivityKind() Kind { return f.kind }
func (f *fakeActivity) ActivityName() string { return f.name }
func (f *fakeActivity) DateRange() Range { return f.dates }
func (f *fakeActivity) SetDateRange(r Range) { f.dates = r }
func (f *fakeActivity) LinkedActivityID() string { return f.link }
func (f *fakeActivity) SetLinkedActivityID(id string) {
	f.link = id
}
func (f *fakeActivity) CloneActivity(newID string) Activity {
	return &fakeActivity{id: newID, name: f.name, kind: f.kind, link: f.link}
}

// memStore 模拟数据库：加载返回副本，保存写回副本
type memStore struct {
	rows   map[string]fakeActivity
	order  []string
	failOn string
	saved  int
}

func newMemStore(acts ...*fakeActivity) *memStore {
	s := &memStore{rows: make(map[string]fakeActivity)}
	for _, a := range acts {
		s.rows[a.id] = *a
		s.order = append(s.order, a.id)
	}
	return s
}

func (s *memStore) LoadActivities(_ context.Context, _ string) ([]Activity, error) {
	out := make([]Activity, 0, len(s.order))
	for _, id := range s.order {
		row := s.rows[id]
		out = append(out, &row)
	}
	return out, nil
}

func (s *memStore) SaveActivity(_ context.Context, a Activity) error {
	if a.ActivityID() == s.failOn {
		return errors.New("写入失败")
	}
	s.rows[a.ActivityID()] = *(a.(*fakeActivity))
	s.saved++
	return nil
}

// atomic 事务语义：fn 出错时恢复快照
func (s *memStore) atomic(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	snapshot := make(map[string]fakeActivity, len(s.rows))
	for k, v := range s.rows {
		snapshot[k] = v
	}
	if err := fn(ctx, s); err != nil {
		s.rows = snapshot
		return err
	}
	return nil
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("加载时区 %s 失败: %v", name, err)
	}
	return loc
}

func at(loc *time.Location, y int, m time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, m, d, h, mi, s, 0, loc)
}

func project(id string, start, end time.Time) *fakeActivity {
	return &fakeActivity{id: id, name: fmt.Sprintf("项目-%s", id), kind: KindProject, dates: Range{Start: start, End: end}}
}
