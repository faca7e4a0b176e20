package timeline

import "time"

// displayLayout 错误信息中的时间展示格式
const displayLayout = "2006-01-02 15:04:05 MST"

// Range 起止时间区间（闭区间）。
// time.Time 零值表示该端缺失，由 WithDefaults 按上级区间补齐。
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange 构造区间
func NewRange(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// HasStart 是否设置了开始时间
func (r Range) HasStart() bool { return !r.Start.IsZero() }

// HasEnd 是否设置了结束时间
func (r Range) HasEnd() bool { return !r.End.IsZero() }

// Complete 起止时间均已设置
func (r Range) Complete() bool { return r.HasStart() && r.HasEnd() }

// Duration 区间长度；不完整或倒置的区间返回 0
func (r Range) Duration() time.Duration {
	if !r.Complete() || r.End.Before(r.Start) {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Contains t 是否落在 [Start, End] 内
func (r Range) Contains(t time.Time) bool {
	if !r.Complete() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps 两区间截断到秒后是否相交（端点相接视为相交）
func (r Range) Overlaps(other Range) bool {
	if !r.Complete() || !other.Complete() {
		return false
	}
	aStart, aEnd := r.Start.Truncate(time.Second), r.End.Truncate(time.Second)
	bStart, bEnd := other.Start.Truncate(time.Second), other.End.Truncate(time.Second)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// EndsAfter r 的结束时间是否晚于 other 的结束时间。
// 比较前两端都清零秒及以下部分：时区换算得到的日末时间只精确到分钟。
func (r Range) EndsAfter(other Range) bool {
	return ZeroSeconds(r.End).After(ZeroSeconds(other.End))
}

// ZeroSeconds 按 t 自身时区的墙上时间清零秒与纳秒
func ZeroSeconds(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, mo, d := t.Date()
	h, mi, _ := t.Clock()
	return time.Date(y, mo, d, h, mi, 0, 0, t.Location())
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(displayLayout)
}
