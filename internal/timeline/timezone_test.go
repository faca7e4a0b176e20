package timeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalStartOfDay(t *testing.T) {
	loc := mustLoad(t, "America/Chicago")

	got := LocalStartOfDay(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), loc)
	want := at(loc, 2024, 1, 1, 0, 0, 0)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestLocalEndOfDay_Idempotent(t *testing.T) {
	loc := mustLoad(t, "America/Chicago")

	// UTC 5月2日 03:00 即芝加哥 5月1日 22:00
	once := LocalEndOfDay(time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), loc)
	want := at(loc, 2024, 5, 1, 23, 59, 0)
	if !once.Equal(want) {
		t.Fatalf("期望 %v，实际 %v", want, once)
	}
	if once.Second() != 0 || once.Nanosecond() != 0 {
		t.Errorf("日末时间应清零秒，实际 %v", once)
	}

	twice := LocalEndOfDay(once, loc)
	if !twice.Equal(once) {
		t.Errorf("重复规范化应得到同一时刻: %v != %v", twice, once)
	}
}

func TestZoneCache_Location(t *testing.T) {
	zones := NewZoneCache()

	loc, err := zones.Location("")
	if err != nil || loc != time.UTC {
		t.Errorf("空时区应为 UTC，实际 %v, %v", loc, err)
	}

	first, err := zones.Location("Asia/Shanghai")
	if err != nil {
		t.Fatalf("加载 Asia/Shanghai 失败: %v", err)
	}
	second, _ := zones.Location("Asia/Shanghai")
	if first != second {
		t.Error("同名时区应命中缓存")
	}

	if _, err := zones.Location("Mars/Olympus"); err == nil {
		t.Error("未知时区应返回错误")
	}
}

func TestOffsetSeconds(t *testing.T) {
	loc := mustLoad(t, "America/Chicago")
	if got := OffsetSeconds(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), loc); got != -6*3600 {
		t.Errorf("冬令时期望 -21600，实际 %d", got)
	}
	if got := OffsetSeconds(time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC), loc); got != -5*3600 {
		t.Errorf("夏令时期望 -18000，实际 %d", got)
	}
}

func TestNormalize_NewCourse(t *testing.T) {
	loc := mustLoad(t, "America/Chicago")
	n := NewNormalizer(NewZoneCache())

	next := &CourseDates{
		Timezone: "America/Chicago",
		Range: NewRange(
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC),
		),
	}
	if err := n.Normalize(context.Background(), next, nil, nil); err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}
	if !next.Start.Equal(at(loc, 2024, 1, 1, 0, 0, 0)) {
		t.Errorf("开始时间应为本地零点，实际 %v", next.Start)
	}
	if !next.End.Equal(at(loc, 2024, 5, 1, 23, 59, 0)) {
		t.Errorf("结束时间应为本地日末，实际 %v", next.End)
	}
}

func TestNormalize_TimezoneChangeMigratesActivities(t *testing.T) {
	chi := mustLoad(t, "America/Chicago")
	ny := mustLoad(t, "America/New_York")
	n := NewNormalizer(NewZoneCache())

	prev := CourseDates{
		ID:       "c1",
		Timezone: "America/Chicago",
		Range:    NewRange(at(chi, 2024, 1, 1, 0, 0, 0), at(chi, 2024, 5, 1, 23, 59, 0)),
	}
	next := prev
	next.Timezone = "America/New_York"

	store := newMemStore(
		project("p1", at(chi, 2024, 1, 15, 0, 0, 0), at(chi, 2024, 2, 15, 23, 59, 0)),
		project("p2", at(chi, 2024, 3, 1, 0, 0, 0), at(chi, 2024, 4, 30, 23, 59, 59)),
	)

	if err := n.Normalize(context.Background(), &next, &prev, store.atomic); err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}

	if !next.Start.Equal(at(ny, 2024, 1, 1, 0, 0, 0)) || !next.End.Equal(at(ny, 2024, 5, 1, 23, 59, 0)) {
		t.Errorf("课程日期应按新时区重建，实际 %v ~ %v", next.Start, next.End)
	}

	p1 := store.rows["p1"].dates
	if !p1.Start.Equal(at(ny, 2024, 1, 15, 0, 0, 0)) || !p1.End.Equal(at(ny, 2024, 2, 15, 23, 59, 0)) {
		t.Errorf("p1 未正确迁移: %v ~ %v", p1.Start, p1.End)
	}
	p2 := store.rows["p2"].dates
	if !p2.End.Equal(at(ny, 2024, 4, 30, 23, 59, 0)) {
		t.Errorf("p2 结束时间未正确迁移: %v", p2.End)
	}
	if store.saved != 2 {
		t.Errorf("期望保存 2 个活动，实际 %d", store.saved)
	}
}

func TestNormalize_TimezoneOnlyKeepsLocalCalendarDate(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	chi := mustLoad(t, "America/Chicago")
	n := NewNormalizer(NewZoneCache())

	// 东京 2024-01-01 00:00 对应 UTC 2023-12-31 15:00；仅修改时区时按本地日历日重建
	prev := CourseDates{
		ID:       "c1",
		Timezone: "Asia/Tokyo",
		Range:    NewRange(at(tokyo, 2024, 1, 1, 0, 0, 0), at(tokyo, 2024, 3, 31, 23, 59, 0)),
	}
	next := prev
	next.Timezone = "America/Chicago"

	if err := n.Normalize(context.Background(), &next, &prev, newMemStore().atomic); err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}
	if want := at(chi, 2024, 1, 1, 0, 0, 0); !next.Start.Equal(want) {
		t.Errorf("期望开始 %v，实际 %v", want, next.Start.In(chi))
	}
	if want := at(chi, 2024, 3, 31, 23, 59, 0); !next.End.Equal(want) {
		t.Errorf("期望结束 %v，实际 %v", want, next.End.In(chi))
	}

	// 同时修改开始日期时按 LocalStartOfDay 取 UTC 日历日
	next = prev
	next.Timezone = "America/Chicago"
	next.Start = at(tokyo, 2024, 1, 8, 0, 0, 0)
	if err := n.Normalize(context.Background(), &next, &prev, newMemStore().atomic); err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}
	if want := at(chi, 2024, 1, 7, 0, 0, 0); !next.Start.Equal(want) {
		t.Errorf("修改开始日期后期望 %v，实际 %v", want, next.Start.In(chi))
	}
}

func TestNormalize_MigrationIsAtomic(t *testing.T) {
	chi := mustLoad(t, "America/Chicago")
	n := NewNormalizer(NewZoneCache())

	prev := CourseDates{
		ID:       "c1",
		Timezone: "America/Chicago",
		Range:    NewRange(at(chi, 2024, 1, 1, 0, 0, 0), at(chi, 2024, 5, 1, 23, 59, 0)),
	}
	next := prev
	next.Timezone = "Europe/London"

	original := []*fakeActivity{
		project("p1", at(chi, 2024, 1, 15, 0, 0, 0), at(chi, 2024, 2, 15, 23, 59, 0)),
		project("p2", at(chi, 2024, 2, 1, 0, 0, 0), at(chi, 2024, 3, 15, 23, 59, 0)),
		project("p3", at(chi, 2024, 3, 1, 0, 0, 0), at(chi, 2024, 4, 15, 23, 59, 0)),
	}
	store := newMemStore(original...)
	store.failOn = "p2"

	err := n.Normalize(context.Background(), &next, &prev, store.atomic)
	var migErr *MigrationError
	if !errors.As(err, &migErr) {
		t.Fatalf("期望 MigrationError，实际: %v", err)
	}
	if migErr.ActivityID != "p2" || migErr.Kind != KindProject {
		t.Errorf("应指出失败的活动 p2，实际 %s %s", migErr.Kind, migErr.ActivityID)
	}

	for _, a := range original {
		got := store.rows[a.id].dates
		if !got.Start.Equal(a.dates.Start) || !got.End.Equal(a.dates.End) {
			t.Errorf("%s 不应被修改: %v ~ %v", a.id, got.Start, got.End)
		}
	}
}

func TestNormalize_NoMigrationWithoutTimezoneChange(t *testing.T) {
	chi := mustLoad(t, "America/Chicago")
	n := NewNormalizer(NewZoneCache())

	prev := CourseDates{
		ID:       "c1",
		Timezone: "America/Chicago",
		Range:    NewRange(at(chi, 2024, 1, 1, 0, 0, 0), at(chi, 2024, 5, 1, 23, 59, 0)),
	}
	next := prev
	store := newMemStore(project("p1", at(chi, 2024, 1, 15, 0, 0, 0), at(chi, 2024, 2, 15, 23, 59, 0)))

	if err := n.Normalize(context.Background(), &next, &prev, store.atomic); err != nil {
		t.Fatalf("Normalize 应成功: %v", err)
	}
	if store.saved != 0 {
		t.Errorf("时区未变不应迁移活动，实际保存 %d 次", store.saved)
	}
	if !next.Start.Equal(prev.Start) || !next.End.Equal(prev.End) {
		t.Error("未修改的日期不应变化")
	}
}

func TestNormalize_RequiresAtomicScope(t *testing.T) {
	chi := mustLoad(t, "America/Chicago")
	n := NewNormalizer(NewZoneCache())

	prev := CourseDates{ID: "c1", Timezone: "America/Chicago", Range: NewRange(at(chi, 2024, 1, 1, 0, 0, 0), at(chi, 2024, 5, 1, 23, 59, 0))}
	next := prev
	next.Timezone = "UTC"

	if err := n.Normalize(context.Background(), &next, &prev, nil); !errors.Is(err, ErrNoAtomicScope) {
		t.Errorf("期望 ErrNoAtomicScope，实际: %v", err)
	}
}

func TestNormalize_UnknownTimezone(t *testing.T) {
	n := NewNormalizer(NewZoneCache())
	next := &CourseDates{Timezone: "Nowhere/Land", Range: NewRange(time.Now(), time.Now())}
	if err := n.Normalize(context.Background(), next, nil, nil); err == nil {
		t.Error("未知时区应返回错误")
	}
}
