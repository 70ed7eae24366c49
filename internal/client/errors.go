package client

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindValidation
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "transport"
	}
}

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api %s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}
