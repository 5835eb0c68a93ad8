package authprovider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches provider responses rejecting the credential.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the auth provider.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth provider: http status %d", e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses, and the 400
// invalid_grant the provider returns for a dead refresh token.
func (e *Error) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	switch {
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return true
	case e.Status == http.StatusBadRequest && (e.Code == "invalid_grant" || e.Code == "refresh_token_not_found"):
		return true
	}
	return false
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
}

func (b errorBody) code() string {
	if b.ErrorCode != "" {
		return b.ErrorCode
	}
	return b.Error
}

func (b errorBody) message() string {
	for _, m := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}
