package service

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
)

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters", pkgerrors.ErrInvalidInput, minUsernameLength, maxUsernameLength)
	}
	return nil
}

func validatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: invalid phone number", pkgerrors.ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", pkgerrors.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", pkgerrors.ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// validateTarget accepts a phone number or an e-mail address.
func validateTarget(target string) error {
	if phonePattern.MatchString(target) || emailPattern.MatchString(target) {
		return nil
	}
	return fmt.Errorf("%w: phone or email required", pkgerrors.ErrInvalidInput)
}
