package contextutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidISODate checks if a string is a YYYY-MM-DD date key using go-playground/validator
func IsValidISODate(date string) bool {
	return validate.Var(date, "datetime=2006-01-02") == nil
}

// IsNonBlank reports whether a string contains non-whitespace content
func IsNonBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
