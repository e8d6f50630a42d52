// Package validation holds the field-level formatting rules shared across
// entities. All helpers are pure: they either return nil or a descriptive
// validation error, and never coerce their input.
package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shelftrack/shelftrack/internal/apperrors"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
	asinRe     = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	nonDigitRe = regexp.MustCompile(`[^0-9]`)
)

// validate is the shared validator/v10 instance. The custom tags mirror the
// package-level helpers so struct-tag validation stays available to callers
// that prefer it.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Registration only fails for blank tags or nil funcs, neither of which
	// can happen here.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isbn", func(fl validator.FieldLevel) bool {
		digits := nonDigitRe.ReplaceAllString(fl.Field().String(), "")
		return len(digits) == 10 || len(digits) == 13
	})
	_ = v.RegisterValidation("asin", func(fl validator.FieldLevel) bool {
		return asinRe.MatchString(fl.Field().String())
	})

	return v
}

// ValidateUsername checks the 3-50 character, [A-Za-z0-9_-] username shape.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return apperrors.Validation("username must be between 3 and 50 characters")
	}
	if !usernameRe.MatchString(username) {
		return apperrors.Validation("username may only contain letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks an optional email address. Empty input is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperrors.Validation("invalid email format")
	}
	return nil
}

// ValidateISBN checks an optional ISBN. Separators are stripped for the
// digit count only; the raw string, separators included, is what callers
// store. Empty input is valid.
func ValidateISBN(isbn string) error {
	if isbn == "" {
		return nil
	}
	if err := validate.Var(isbn, "isbn"); err != nil {
		return apperrors.Validation("ISBN must contain exactly 10 or 13 digits")
	}
	return nil
}

// ValidateASIN checks an optional ASIN: exactly 10 characters from [A-Z0-9].
// Lowercase input is rejected, not normalised; callers upper-case first.
// Empty input is valid.
func ValidateASIN(asin string) error {
	if asin == "" {
		return nil
	}
	if err := validate.Var(asin, "asin"); err != nil {
		return apperrors.Validation("ASIN must be exactly 10 uppercase letters or digits")
	}
	return nil
}

// ValidateNotFuture rejects a date later than the end of the current
// calendar day in local time. A nil date is valid.
func ValidateNotFuture(date *time.Time, field string) error {
	if date == nil {
		return nil
	}
	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
	if date.After(endOfDay) {
		return apperrors.Validation("%s cannot be in the future", field)
	}
	return nil
}

// StripNonDigits returns only the digit characters of s. Used by callers
// that need the normalised ISBN for matching without touching the stored
// value.
func StripNonDigits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// TrimmedNonEmpty trims s and reports whether anything remains.
func TrimmedNonEmpty(s string) (string, bool) {
	t := strings.TrimSpace(s)
	return t, t != ""
}
