// Package errors defines the typed error taxonomy shared by the auth service.
// Every business-rule failure is an *Error carrying an HTTP status and a kind;
// the transport layer maps it onto the response envelope with StatusOf/KindOf.
package errors

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindConflict   Kind = "conflict_error"
	KindNotFound   Kind = "not_found_error"
	KindAuth       Kind = "auth_error"
	KindUpload     Kind = "upload_error"
	KindInternal   Kind = "internal_error"
)

// Error is a business-rule failure with a transport-ready status code.
// It never carries internal detail; wrap infrastructure errors with %w at the
// call site and log them there instead.
type Error struct {
	Status  int
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func Auth(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Kind: KindAuth, Message: msg}
}

func Upload(msg string) *Error {
	return &Error{Status: http.StatusBadGateway, Kind: KindUpload, Message: msg}
}

func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Kind: KindInternal, Message: msg}
}

var (
	ErrAllFieldsRequired   = Validation("all fields are required")
	ErrIdentifierRequired  = Validation("username or email is required")
	ErrAvatarFileRequired  = Validation("avatar file is required")
	ErrCoverFileRequired   = Validation("cover image file is required")
	ErrUserAlreadyExists   = Conflict("user with email or username already exists")
	ErrUserNotFound        = NotFound("user does not exist")
	ErrInvalidCredentials  = Auth("invalid user credentials")
	ErrMissingRefreshToken = Auth("unauthorized request")
	ErrInvalidRefreshToken = Auth("invalid refresh token")
	ErrRefreshTokenUsed    = Auth("refresh token is expired or used")
	ErrMissingAccessToken  = Auth("unauthorized request")
	ErrInvalidAccessToken  = Auth("invalid access token")
	ErrInvalidOldPassword  = Auth("invalid old password")
	ErrAvatarUploadFailed  = Upload("error while uploading avatar")
	ErrCoverUploadFailed   = Upload("error while uploading cover image")
	ErrUserCreationFailed  = Internal("something went wrong while registering the user")
	ErrTokenGeneration     = Internal("something went wrong while generating tokens")
)

// StatusOf returns the HTTP status for err, or 500 for untyped errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// KindOf returns the error kind for err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err. Untyped errors collapse to
// a generic message so no internal detail leaks through the envelope.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
