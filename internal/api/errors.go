package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindNetworkUnavailable ErrorKind = iota + 1
	KindServer
	KindUnauthorized
	KindClient
	KindMalformedResponse
	KindLocalStorageUnavailable
)

// Sentinels matched with errors.Is against any *Error.
var (
	ErrNetworkUnavailable      = errors.New("network unavailable")
	ErrServer                  = errors.New("server error")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrClient                  = errors.New("client error")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrLocalStorageUnavailable = errors.New("local storage unavailable")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetworkUnavailable:
		return ErrNetworkUnavailable
	case KindServer:
		return ErrServer
	case KindUnauthorized:
		return ErrUnauthorized
	case KindClient:
		return ErrClient
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindLocalStorageUnavailable:
		return ErrLocalStorageUnavailable
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// Error is a classified failure of a backend call.
type Error struct {
	Kind   ErrorKind
	Method string
	Path   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap exposes both the cause and the kind sentinel to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	return out
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindUnauthorized
	case code >= 500:
		return KindServer
	default:
		return KindClient
	}
}
