package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"colab/backend/internal/timeline"
)

// 自定义校验标签
const timezoneTag = "timezone"

// FieldError 请求参数校验错误（以 JSON 字段名表示）
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// RegisterValidators 在 gin 的 binding 引擎上注册自定义校验：
// 错误使用 JSON 字段名；timezone 标签要求取值为 zones 可解析的 IANA 时区名。
func RegisterValidators(zones timeline.Zones) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("不支持的校验引擎 %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v.RegisterValidation(timezoneTag, func(fl validator.FieldLevel) bool {
		_, err := zones.Location(fl.Field().String())
		return err == nil
	})
}

// FieldErrors 将绑定错误展开为字段级明细；非校验类错误（如 JSON 语法错误）返回 nil
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
