package domain

import (
	"errors"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	MessageFailedBodyRequest  = "failed to parse request body"
	MessageFailedGetToken     = "failed to get token"
	MessageFailedTokenInvalid = "failed to validate token"
	MessageNotFound           = "not found"
	MessageMethodNotAllowed   = "method not allowed"

	ErrTokenNotFound   = errors.New("authentication credentials were not provided")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

type (
	// Actor is the caller of a service operation. The zero value is an
	// anonymous caller.
	Actor struct {
		UserID  uint
		IsAdmin bool
	}

	Pagination[T any] struct {
		Count    int64   `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}

	// ValidationError reports a rejected value of a single request field.
	ValidationError struct {
		Field   string
		Message string
	}
)

func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0
}

// CanModify reports whether the actor may change something owned by ownerID.
func (a Actor) CanModify(ownerID *uint) bool {
	if a.IsAdmin {
		return true
	}
	return ownerID != nil && a.IsAuthenticated() && *ownerID == a.UserID
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
