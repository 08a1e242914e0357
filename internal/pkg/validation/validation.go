package validation

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns the shared validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Struct validates a request struct and returns a human-readable
// message for the first failing field, or "" when valid.
func Struct(s interface{}) string {
	err := Get().Struct(s)
	if err == nil {
		return ""
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		return "Field validation for '" + e.Field() + "' failed on the '" + e.Tag() + "' tag"
	}

	return err.Error()
}
