package user

import (
	"fmt"
	"unicode"

	"github.com/mehmetcc/session-rotation-service/internal/apperror"
)

const PasswordMinimumLength = 8

// PasswordMaximumBytes is the longest input bcrypt accepts.
const PasswordMaximumBytes = 72

var (
	ErrPasswordTooShort = apperror.New(apperror.BadRequest,
		fmt.Sprintf("password should be at least %d characters", PasswordMinimumLength))
	ErrPasswordTooLong = apperror.New(apperror.BadRequest,
		fmt.Sprintf("password must be at most %d bytes", PasswordMaximumBytes))
	ErrPasswordTooWeak = apperror.New(apperror.BadRequest, "password must contain a letter and a digit")
)

// CheckPassword enforces the registration password policy.
func CheckPassword(password string) error {
	if len([]rune(password)) < PasswordMinimumLength {
		return ErrPasswordTooShort
	}
	if len(password) > PasswordMaximumBytes {
		return ErrPasswordTooLong
	}
	if !hasLetterAndDigit(password) {
		return ErrPasswordTooWeak
	}
	return nil
}

func hasLetterAndDigit(password string) bool {
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		if unicode.IsLetter(c) {
			hasLetter = true
		}
		if unicode.IsDigit(c) {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
