package internal

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("nickname_rules", func(fl validator.FieldLevel) bool {
		re := regexp.MustCompile(`^[\w가-힣]{2,20}$`)
		return re.MatchString(fl.Field().String())
	})

	// Deadlines are calendar dates, not timestamps.
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	return v
}

func ValidateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err != nil {
		return err
	}
	return nil
}
