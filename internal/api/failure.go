package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure kinds.
const (
	KindHTTP    Kind = "request_failed"
	KindNetwork Kind = "network_failure"
	KindDecode  Kind = "decode_failure"
)

// ErrUnauthorized matches, via errors.Is, any Failure carrying status 401.
var ErrUnauthorized = errors.New("unauthorized")

type Kind string

// Failure is the error returned for every unsuccessful request. Status is 0
// when no response was obtained.
type Failure struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", f.Method, f.Path, f.Kind)
	if f.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", f.Status)
	}
	if f.Message != "" {
		fmt.Fprintf(&b, ": %s", f.Message)
	}
	if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool {
	return target == ErrUnauthorized && f.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err carries a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var f *Failure
	if errors.As(err, &f) {
		return f.Status
	}
	return 0
}

// MessageOrDefault returns the server-supplied message carried by err, or
// fallback when there is none.
func MessageOrDefault(err error, fallback string) string {
	var f *Failure
	if errors.As(err, &f) && strings.TrimSpace(f.Message) != "" {
		return f.Message
	}
	return fallback
}

// serverMessage extracts the "error" field of a JSON error payload.
func serverMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
