// Package validation holds the field checks shared by the request DTOs, both
// as plain predicates and as ozzo-validation rules.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// Digits with an optional leading +, allowing spaces, dashes and parentheses.
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,18}[0-9]$`)
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// IsValidUUID checks if the string is a valid UUID format
func IsValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidPassword checks password strength
func IsValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(password) > maxPasswordBytes {
		return false, "Password must be at most 72 bytes"
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !hasNumber {
		return false, "Password must contain at least one number"
	}
	if !hasSpecial {
		return false, "Password must contain at least one special character"
	}

	return true, ""
}

// SanitizeString drops control characters other than line breaks and tabs
// from free text such as report bodies.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r', r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// TruncateString cuts s to at most maxLen runes.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	for i := range s {
		if maxLen == 0 {
			return s[:i]
		}
		maxLen--
	}
	return s
}

// Password is the ozzo rule for IsValidPassword. Empty values pass; combine
// it with ozzo.Required where the field is mandatory.
var Password = ozzo.By(func(value interface{}) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	if ok, msg := IsValidPassword(s); !ok {
		return errors.New(msg)
	}
	return nil
})

// Phone is the ozzo rule for IsValidPhone. Empty values pass.
var Phone = ozzo.By(func(value interface{}) error {
	s := stringValue(value)
	if s == "" || IsValidPhone(s) {
		return nil
	}
	return errors.New("must be a valid phone number")
})

// UUID is the ozzo rule for IsValidUUID. Empty values pass.
var UUID = ozzo.By(func(value interface{}) error {
	s := stringValue(value)
	if s == "" || IsValidUUID(s) {
		return nil
	}
	return errors.New("must be a valid UUID")
})

func stringValue(value interface{}) string {
	v, _ := ozzo.Indirect(value)
	s, _ := v.(string)
	return s
}

// Details flattens the result of ozzo.ValidateStruct into field messages.
// It returns nil when err is nil.
func Details(err error) map[string]string {
	if err == nil {
		return nil
	}
	var fields ozzo.Errors
	if !errors.As(err, &fields) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(fields))
	for field, ferr := range fields {
		out[field] = capitalize(ferr.Error())
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
