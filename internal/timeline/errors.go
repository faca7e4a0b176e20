package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 日期校验错误类别
type ErrorKind int

const (
	MissingDate ErrorKind = iota + 1
	InvertedRange
	OutOfParentBounds
)

func (k ErrorKind) String() string {
	switch k {
	case MissingDate:
		return "missing_date"
	case InvertedRange:
		return "inverted_range"
	case OutOfParentBounds:
		return "out_of_parent_bounds"
	}
	return "unknown"
}

// 校验错误关联的字段
const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
)

// ValidationError 单条日期校验错误
type ValidationError struct {
	Field   string
	Kind    ErrorKind
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors 一次校验收集到的全部错误，不会在第一条错误处短路
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Err 无错误时返回 nil，便于直接作为 error 返回
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Has 是否包含指定字段、指定类别的错误
func (v ValidationErrors) Has(field string, kind ErrorKind) bool {
	return v.Count(field, kind) > 0
}

// Count 统计指定字段、指定类别的错误数
func (v ValidationErrors) Count(field string, kind ErrorKind) int {
	n := 0
	for _, e := range v {
		if e.Field == field && e.Kind == kind {
			n++
		}
	}
	return n
}

// ErrNoAtomicScope 需要迁移活动但调用方未提供事务作用域
var ErrNoAtomicScope = errors.New("时区迁移需要事务作用域")

// MigrationError 时区迁移整批失败；ActivityID 为首个出错的活动（加载失败时为空）
type MigrationError struct {
	ActivityID string
	Kind       Kind
	Err        error
}

func (e *MigrationError) Error() string {
	if e.ActivityID == "" {
		return fmt.Sprintf("时区迁移失败: %v", e.Err)
	}
	return fmt.Sprintf("时区迁移失败: %s %s: %v", e.Kind.Label(), e.ActivityID, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// CloneError 课程克隆整体失败；Kind 为空表示课程本身出错，EntityID 为源实体 ID
type CloneError struct {
	Kind     Kind
	EntityID string
	Err      error
}

func (e *CloneError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("课程克隆失败: 课程 %s: %v", e.EntityID, e.Err)
	}
	return fmt.Sprintf("课程克隆失败: %s %s: %v", e.Kind.Label(), e.EntityID, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }
