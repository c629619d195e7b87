package validator

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/pulse-api/internal/model"
)

// Register adds the domain tags calendar_date and clock to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		_, err := model.ParseCalendarDate(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register calendar_date: %w", err)
	}

	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register clock: %w", err)
	}
	return nil
}

// RegisterWithGin installs the domain tags on gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
