package timeline

import (
	"errors"
	"time"
)

// ErrWeekdayOutOfRange 星期取值必须在 0（周日）~ 6（周六）之间
var ErrWeekdayOutOfRange = errors.New("星期取值必须在 0~6 之间")

// WeekdayWindow 活动绝对日期区间内每周重复开放的星期窗口。
// Start <= End 时为周内连续区间；否则跨越周末回绕（如周五 → 周一）。
type WeekdayWindow struct {
	Start int
	End   int
}

// Validate 校验起止星期的取值范围
func (w WeekdayWindow) Validate() error {
	if w.Start < 0 || w.Start > 6 || w.End < 0 || w.End > 6 {
		return ErrWeekdayOutOfRange
	}
	return nil
}

// Wraps 窗口是否跨越周六 → 周日
func (w WeekdayWindow) Wraps() bool {
	return w.Start > w.End
}

// Days 窗口覆盖的星期，按开放顺序排列
func (w WeekdayWindow) Days() []time.Weekday {
	var days []time.Weekday
	if !w.Wraps() {
		for d := w.Start; d <= w.End; d++ {
			days = append(days, time.Weekday(d))
		}
		return days
	}
	for d := w.Start; d <= 6; d++ {
		days = append(days, time.Weekday(d))
	}
	for d := 0; d <= w.End; d++ {
		days = append(days, time.Weekday(d))
	}
	return days
}

// Includes 某个星期是否在窗口内
func (w WeekdayWindow) Includes(day time.Weekday) bool {
	d := int(day)
	if !w.Wraps() {
		return w.Start <= d && d <= w.End
	}
	return d >= w.Start || d <= w.End
}
