// Package validation checks user input before it reaches the services.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxEmailLength    = 254
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]*[A-Za-z0-9])?$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// passwordClasses must each match at least one rune of a password.
var passwordClasses = []struct {
	name string
	in   func(rune) bool
}{
	{"an uppercase letter", unicode.IsUpper},
	{"a lowercase letter", unicode.IsLower},
	{"a digit", unicode.IsDigit},
	{"a symbol or punctuation mark", func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }},
}

// ValidatePassword enforces length in runes and character variety.
func ValidatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("password must be %d to %d characters", MinPasswordLength, MaxPasswordLength)
	}
	for _, class := range passwordClasses {
		if !strings.ContainsFunc(password, class.in) {
			return fmt.Errorf("password must contain %s", class.name)
		}
	}
	return nil
}

// ValidateUsername allows ASCII letters, digits, underscores and hyphens,
// but not at either end.
func ValidateUsername(username string) error {
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username may use letters, digits, _ and - and must start and end with a letter or digit")
	}
	return nil
}

func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength || !emailPattern.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}
