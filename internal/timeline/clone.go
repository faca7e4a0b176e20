package timeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// CloneEntry 一个被克隆的活动：源活动 ID 与尚未持久化的新活动
type CloneEntry struct {
	SourceID string
	Activity Activity
}

// Clone 课程克隆结果（均未持久化）
type Clone struct {
	DayOffset int
	Dates     Range
	Entries   []CloneEntry
	// IDMap 源活动 ID → 新活动 ID
	IDMap map[string]string
}

// Activities 新活动列表（按克隆顺序）
func (c *Clone) Activities() []Activity {
	out := make([]Activity, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.Activity)
	}
	return out
}

// Cloner 将课程日程平移到新的开始日期
type Cloner struct {
	zones Zones
	newID func() string
}

// NewCloner 创建 Cloner；newID 为 nil 时使用随机 UUID
func NewCloner(zones Zones, newID func() string) *Cloner {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Cloner{zones: zones, newID: newID}
}

// DayDifference 课程时区内 newStart 与 sourceStart 相差的日历天数。
// 按日历日而不是 86400 秒计算，夏令时切换日（23/25 小时）不会产生半天偏差。
func DayDifference(sourceStart, newStart time.Time, loc *time.Location) int {
	sy, sm, sd := sourceStart.In(loc).Date()
	ny, nm, nd := newStart.In(loc).Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// shiftStart 在课程时区内按日历日平移，保持墙上时间
func shiftStart(t time.Time, days int, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(loc).AddDate(0, 0, days)
}

// shiftEnd 先加上课程 UTC 偏移（秒），使 UTC 读数等于本地墙上时间，
// 再按天平移并在课程时区重建。日末时间因此不会因换算落到相邻日期。
func shiftEnd(t time.Time, days int, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	corrected := t.Add(time.Duration(OffsetSeconds(t, loc)) * time.Second).UTC()
	y, m, d := corrected.Date()
	h, mi, s := corrected.Clock()
	return time.Date(y, m, d+days, h, mi, s, corrected.Nanosecond(), loc)
}

// Clone 计算 src 平移到 newStart 后的课程区间与全部活动副本。
//
// 项目最先克隆，宾果游戏与作业对项目的引用通过 IDMap 指向新项目，找不到时置空；
// 每个副本都会按新课程区间校验，任一失败即整体返回 CloneError。
func (c *Cloner) Clone(src CourseDates, activities []Activity, newStart time.Time) (*Clone, error) {
	loc, err := c.zones.Location(src.Timezone)
	if err != nil {
		return nil, &CloneError{EntityID: src.ID, Err: err}
	}
	if !src.Complete() {
		return nil, &CloneError{EntityID: src.ID, Err: ValidateCourseDates(src.Range, nil)}
	}

	days := DayDifference(src.Start, newStart, loc)
	out := &Clone{
		DayOffset: days,
		Dates: Range{
			Start: shiftStart(src.Start, days, loc),
			End:   shiftStart(src.End, days, loc),
		},
		IDMap: make(map[string]string, len(activities)),
	}

	ordered := make([]Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ActivityKind().cloneRank() < ordered[j].ActivityKind().cloneRank()
	})

	for _, a := range ordered {
		id := c.newID()
		dup := a.CloneActivity(id)

		r := a.DateRange()
		dup.SetDateRange(Range{
			Start: shiftStart(r.Start, days, loc),
			End:   shiftEnd(r.End, days, loc),
		})

		// 引用的项目不在本次克隆中（已删除或属于其他课程）时，副本不保留引用
		if l, ok := dup.(Linked); ok && l.LinkedActivityID() != "" {
			l.SetLinkedActivityID(out.IDMap[l.LinkedActivityID()])
		}

		if errs := ValidateActivityDates(dup, out.Dates); len(errs) > 0 {
			return nil, &CloneError{Kind: a.ActivityKind(), EntityID: a.ActivityID(), Err: errs}
		}

		out.IDMap[a.ActivityID()] = id
		out.Entries = append(out.Entries, CloneEntry{SourceID: a.ActivityID(), Activity: dup})
	}

	return out, nil
}
