package timeline

import "fmt"

// WithDefaults 缺失的起止时间取上级区间的对应端点。
// 返回新值，不修改入参；必须在 CheckDates 之前调用。
func WithDefaults(candidate, parent Range) Range {
	if !candidate.HasStart() {
		candidate.Start = parent.Start
	}
	if !candidate.HasEnd() {
		candidate.End = parent.End
	}
	return candidate
}

// CheckDates 校验 candidate 非空、有序且嵌套在 parent 内，label 为实体名称（如“项目”）。
// 所有问题一次性收集返回；parent 缺失的端点不参与比较。
func CheckDates(label string, candidate, parent Range) ValidationErrors {
	var errs ValidationErrors

	if !candidate.HasStart() {
		errs = append(errs, ValidationError{
			Field:   FieldStartDate,
			Kind:    MissingDate,
			Message: fmt.Sprintf("%s的开始日期不能为空", label),
		})
	}
	if !candidate.HasEnd() {
		errs = append(errs, ValidationError{
			Field:   FieldEndDate,
			Kind:    MissingDate,
			Message: fmt.Sprintf("%s的结束日期不能为空", label),
		})
	}
	if len(errs) > 0 {
		return errs
	}

	if candidate.Start.After(candidate.End) {
		errs = append(errs, ValidationError{
			Field:   FieldStartDate,
			Kind:    InvertedRange,
			Message: fmt.Sprintf("%s的开始日期必须早于结束日期", label),
		})
	}
	if parent.HasStart() && candidate.Start.Before(parent.Start) {
		errs = append(errs, ValidationError{
			Field:   FieldStartDate,
			Kind:    OutOfParentBounds,
			Message: fmt.Sprintf("%s不能早于课程开始（%s）", label, formatInstant(parent.Start)),
		})
	}
	if parent.HasEnd() && candidate.EndsAfter(parent) {
		errs = append(errs, ValidationError{
			Field: FieldEndDate,
			Kind:  OutOfParentBounds,
			Message: fmt.Sprintf("%s不能在课程结束后继续（%s > %s）",
				label, formatInstant(candidate.End), formatInstant(parent.End)),
		})
	}

	return errs
}

// ValidateActivityDates 活动视角：补齐默认值后校验“我是否落在课程内”。
// 课程区间由调用方显式传入，不经由活动反查课程。
func ValidateActivityDates(a Activity, course Range) ValidationErrors {
	return CheckDates(a.ActivityKind().Label(), WithDefaults(a.DateRange(), course), course)
}

// ValidateCourseDates 课程视角：课程自身日期完整有序，且不能收缩到任一活动之外。
func ValidateCourseDates(course Range, activities []Activity) ValidationErrors {
	var errs ValidationErrors

	if !course.HasStart() {
		errs = append(errs, ValidationError{Field: FieldStartDate, Kind: MissingDate, Message: "开始日期不能为空"})
	}
	if !course.HasEnd() {
		errs = append(errs, ValidationError{Field: FieldEndDate, Kind: MissingDate, Message: "结束日期不能为空"})
	}
	if len(errs) > 0 {
		return errs
	}
	if course.Start.After(course.End) {
		errs = append(errs, ValidationError{Field: FieldStartDate, Kind: InvertedRange, Message: "开始日期必须早于结束日期"})
	}

	for _, a := range activities {
		r := a.DateRange()
		label := a.ActivityKind().Label()
		if r.HasStart() && r.Start.Before(course.Start) {
			errs = append(errs, ValidationError{
				Field: FieldStartDate,
				Kind:  OutOfParentBounds,
				Message: fmt.Sprintf("%s「%s」当前早于课程开始（%s < %s）",
					label, a.ActivityName(), formatInstant(r.Start), formatInstant(course.Start)),
			})
		}
		if r.HasEnd() && r.EndsAfter(course) {
			errs = append(errs, ValidationError{
				Field: FieldEndDate,
				Kind:  OutOfParentBounds,
				Message: fmt.Sprintf("%s「%s」当前晚于课程结束（%s > %s）",
					label, a.ActivityName(), formatInstant(r.End), formatInstant(course.End)),
			})
		}
	}

	return errs
}
