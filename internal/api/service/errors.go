package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInactiveUser       = errors.New("inactive_user")
	ErrForbidden          = errors.New("forbidden")
	ErrPasswordNotOwn     = errors.New("password_not_own")
	ErrIncorrectPassword  = errors.New("incorrect_password")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInvalidPage        = errors.New("invalid_page")
)

// PageError describes why pagination parameters were rejected. It matches
// ErrInvalidPage with errors.Is.
type PageError struct {
	Detail string
}

func (e *PageError) Error() string        { return e.Detail }
func (e *PageError) Is(target error) bool { return target == ErrInvalidPage }

func pageErrorf(format string, args ...any) error {
	return &PageError{Detail: fmt.Sprintf(format, args...)}
}
