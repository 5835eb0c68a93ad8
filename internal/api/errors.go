package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoResume is returned when the user has not uploaded a resume yet.
var ErrNoResume = errors.New("no resume found")

// Error is a non-2xx backend response.
type Error struct {
	Status int
	Detail string
	Method string
	Path   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

// Message returns the server-provided message in err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func newError(status int, method, path string, raw []byte) *Error {
	e := &Error{Status: status, Method: method, Path: path}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return e
	}
	if len(body.Detail) > 0 {
		e.Detail = detailText(body.Detail)
	}
	if e.Detail == "" && body.Error != nil {
		e.Detail = body.Error.Message
	}
	if e.Detail == "" {
		e.Detail = body.Message
	}
	return e
}

// detailText flattens a detail that is either a string or a list of validation errors.
func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
