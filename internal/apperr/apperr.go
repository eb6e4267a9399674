package apperr

import (
	"errors"
	"net/http"
)

// Kind discriminates application errors so the HTTP boundary can map every
// failure to a status code and short error code without type inspection.
type Kind int

const (
	KindUnauthorized Kind = iota
	KindForbidden
	KindBadRequest
	KindInvalidPhotoType
	KindInvalidCredentials
	KindNotFound
	KindConflict
	KindValidation
	KindInvalidTransition
	KindVerificationEmail
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// FromKind builds an error carrying the kind's default message.
func FromKind(kind Kind) *Error {
	return &Error{Kind: kind, Message: kind.DefaultMessage()}
}

// KindOf extracts the kind from an error chain. The second return is false
// when the error is not an application error.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return KindInternal, false
}

func (k Kind) Code() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindInvalidPhotoType:
		return "invalid_photo_type"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_error"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindVerificationEmail:
		return "verification_email_error"
	default:
		return "internal_error"
	}
}

func (k Kind) Status() int {
	switch k {
	case KindUnauthorized, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest, KindInvalidPhotoType:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation, KindInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) DefaultMessage() string {
	switch k {
	case KindUnauthorized:
		return "You don't have the right to access this resource."
	case KindForbidden:
		return "Administrator privileges required."
	case KindBadRequest:
		return "Bad request."
	case KindInvalidPhotoType:
		return "Only image files are allowed."
	case KindInvalidCredentials:
		return "Invalid email or password."
	case KindNotFound:
		return "Resource not found."
	case KindConflict:
		return "Resource conflict."
	case KindValidation:
		return "Validation failed."
	case KindInvalidTransition:
		return "Illegal report status transition."
	case KindVerificationEmail:
		return "Unable to send verification email. Please try again later."
	default:
		return "Internal server error."
	}
}
