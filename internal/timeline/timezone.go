package timeline

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Zones 时区表
type Zones interface {
	Location(name string) (*time.Location, error)
}

// ZoneCache 基于 IANA 时区库的 Zones 实现，加载结果进程内缓存。
// 空名称按 UTC 处理。
type ZoneCache struct {
	mu   sync.RWMutex
	locs map[string]*time.Location
}

// NewZoneCache 创建 ZoneCache
func NewZoneCache() *ZoneCache {
	return &ZoneCache{locs: make(map[string]*time.Location)}
}

func (z *ZoneCache) Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	z.mu.RLock()
	loc, ok := z.locs[name]
	z.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("未知时区 %q: %w", name, err)
	}

	z.mu.Lock()
	z.locs[name] = loc
	z.mu.Unlock()
	return loc, nil
}

// OffsetSeconds t 时刻 loc 相对 UTC 的偏移（秒）
func OffsetSeconds(t time.Time, loc *time.Location) int {
	_, offset := t.In(loc).Zone()
	return offset
}

// LocalStartOfDay 取 t 的 UTC 日历日期，构造 loc 中当天 00:00:00
func LocalStartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// LocalEndOfDay 取 t 在 loc 中的日历日期，构造当天 23:59:00。
// 日末按约定只保留到分钟，之后的截秒比较因此是精确相等；对已规范化的值幂等。
func LocalEndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 0, 0, loc)
}

// ReprojectRange 按旧时区读出日历日期，在新时区重建日初/日末
func ReprojectRange(r Range, from, to *time.Location) Range {
	if r.HasStart() {
		y, m, d := r.Start.In(from).Date()
		r.Start = time.Date(y, m, d, 0, 0, 0, 0, to)
	}
	if r.HasEnd() {
		y, m, d := r.End.In(from).Date()
		r.End = time.Date(y, m, d, 23, 59, 0, 0, to)
	}
	return r
}

// ── 时区迁移 ──

// CourseDates 课程的时区与起止时间
type CourseDates struct {
	ID       string
	Timezone string
	Range
}

// Store 持久化协作方：加载课程下的全部活动，以及跳过校验直接保存活动
type Store interface {
	LoadActivities(ctx context.Context, courseID string) ([]Activity, error)
	SaveActivity(ctx context.Context, a Activity) error
}

// AtomicFunc 在全有或全无的事务中执行 fn；fn 返回错误时之前的写入全部回滚
type AtomicFunc func(ctx context.Context, fn func(ctx context.Context, store Store) error) error

// Normalizer 课程时区规范化
type Normalizer struct {
	zones Zones
}

// NewNormalizer 创建 Normalizer
func NewNormalizer(zones Zones) *Normalizer {
	return &Normalizer{zones: zones}
}

// Normalize 在校验与持久化之前规范化 next 的起止时间，必要时迁移全部活动。
//
//   - prev 为 nil 表示新建课程；
//   - 开始时间被修改时按 LocalStartOfDay 重新计算，结束时间被修改时按 LocalEndOfDay；
//   - 仅时区被修改时，起止时间按旧时区的日历日期在新时区重建（与活动迁移一致）；
//   - 时区被修改且旧时区非空时，在 atomic 提供的事务内重投影课程下全部活动，
//     活动保存时不做校验，由课程随后的整体校验兜底。
func (n *Normalizer) Normalize(ctx context.Context, next, prev *CourseDates, atomic AtomicFunc) error {
	loc, err := n.zones.Location(next.Timezone)
	if err != nil {
		return err
	}

	tzChanged := prev == nil || prev.Timezone != next.Timezone
	startChanged := prev == nil || !prev.Start.Equal(next.Start)
	endChanged := prev == nil || !prev.End.Equal(next.End)

	var from *time.Location
	if prev != nil && prev.Timezone != "" && tzChanged {
		if from, err = n.zones.Location(prev.Timezone); err != nil {
			return err
		}
	}

	if next.HasStart() {
		switch {
		case startChanged:
			next.Start = LocalStartOfDay(next.Start, loc)
		case tzChanged && from != nil:
			next.Start = ReprojectRange(Range{Start: next.Start}, from, loc).Start
		case tzChanged:
			next.Start = LocalStartOfDay(next.Start, loc)
		}
	}
	if next.HasEnd() {
		switch {
		case endChanged:
			next.End = LocalEndOfDay(next.End, loc)
		case tzChanged && from != nil:
			next.End = ReprojectRange(Range{End: next.End}, from, loc).End
		case tzChanged:
			next.End = LocalEndOfDay(next.End, loc)
		}
	}

	if from == nil {
		return nil
	}
	if atomic == nil {
		return ErrNoAtomicScope
	}
	return atomic(ctx, func(ctx context.Context, store Store) error {
		return Reproject(ctx, store, next.ID, from, loc)
	})
}

// Reproject 将课程下全部活动从 from 时区重投影到 to 时区并逐个保存。
// 首个失败即返回 MigrationError，回滚由外层事务负责。
func Reproject(ctx context.Context, store Store, courseID string, from, to *time.Location) error {
	activities, err := store.LoadActivities(ctx, courseID)
	if err != nil {
		return &MigrationError{Err: err}
	}
	for _, a := range activities {
		a.SetDateRange(ReprojectRange(a.DateRange(), from, to))
		if err := store.SaveActivity(ctx, a); err != nil {
			return &MigrationError{ActivityID: a.ActivityID(), Kind: a.ActivityKind(), Err: err}
		}
	}
	return nil
}
