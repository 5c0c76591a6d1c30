package customErrors

import (
	"errors"
	"fmt"
)

const (
	ErrInvalidCredentials = "INVALID CREDENTIALS"
	ErrInvalidToken       = "INVALID TOKEN"
	ErrUsernameTaken      = "USERNAME TAKEN"
	ErrInvalidInput       = "INVALID INPUT"
	ErrUnknownUser        = "UNKNOWN USER"
	ErrRecordNotFound     = "RECORD NOT FOUND"
	ErrInvalidDate        = "INVALID DATE"
	ErrInvalidPayload     = "INVALID PAYLOAD"
	ErrRateLimited        = "RATE LIMITED"
	ErrInternal           = "INTERNAL"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

func New(code string, message string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// CodeOf returns the code of the first ErrorResponse in err's chain,
// or ErrInternal when there is none.
func CodeOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// MessageOf returns the human readable message of the first ErrorResponse
// in err's chain. Errors without one get a generic message so driver
// details never reach the client.
func MessageOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong, try again later."
}

func Is(err error, code string) bool {
	return CodeOf(err) == code
}
