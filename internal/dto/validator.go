package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// RegisterValidators 注册业务枚举与结构体级校验
// gin 的 binding 引擎与导入工具共用同一套规则
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("term", oneOfValidator(model.Terms)); err != nil {
		return err
	}
	if err := v.RegisterValidation("delivery_mode", oneOfValidator(model.DeliveryModes)); err != nil {
		return err
	}
	if err := v.RegisterValidation("program_category", oneOfValidator(model.ProgramCategories)); err != nil {
		return err
	}
	v.RegisterStructValidation(courseSeatsValidation, CreateCourseRequest{})
	return nil
}

func oneOfValidator(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// courseSeatsValidation 可用座位不得超过班级容量
func courseSeatsValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateCourseRequest)
	if req.SeatsAvailable > req.ClassSize {
		sl.ReportError(req.SeatsAvailable, "SeatsAvailable", "seats_available", "ltefield_class_size", "")
	}
}

// FormatValidationErrors 将校验错误转换为可读的字段说明
func FormatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" 为必填项")
		case "email":
			msgs = append(msgs, field+" 必须是合法邮箱")
		case "min":
			msgs = append(msgs, field+" 不能小于 "+e.Param())
		case "max":
			msgs = append(msgs, field+" 不能大于 "+e.Param())
		case "datetime":
			msgs = append(msgs, field+" 日期格式应为 "+e.Param())
		case "term":
			msgs = append(msgs, field+" 必须是 "+strings.Join(model.Terms, "/"))
		case "delivery_mode":
			msgs = append(msgs, field+" 必须是 "+strings.Join(model.DeliveryModes, "/"))
		case "program_category":
			msgs = append(msgs, field+" 必须是 "+strings.Join(model.ProgramCategories, "/"))
		case "ltefield_class_size":
			msgs = append(msgs, field+" 不能超过 class_size")
		default:
			msgs = append(msgs, field+" 不合法")
		}
	}
	return strings.Join(msgs, "; ")
}
