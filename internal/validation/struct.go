package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	apperrors "insurecow/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	once            sync.Once
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return IsMobile(fl.Field().String())
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			p := fl.Field().String()
			return len(p) >= MinPasswordLength && len(p) <= MaxPasswordLength && HasSpecialChar(p)
		})
		structValidator = v
	})
	return structValidator
}

// Struct validates s against its `validate` tags and converts failures into a
// validation error keyed by json field name.
func Struct(s interface{}) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Internal(err)
	}

	v := New()
	for _, fe := range verrs {
		v.AddError(fe.Field(), message(fe))
	}
	return v.Err()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "mobile":
		return "must be a valid mobile number"
	case "password":
		return "must be at least 8 characters long and contain at least one special character"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	}
	return "is invalid"
}
