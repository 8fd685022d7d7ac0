package dispatch

import "net/http"

// Status classifies a handler outcome independently of the transport. The
// HTTP layer maps it to a wire status code and knows nothing else about why
// an operation failed.
type Status int

const (
	StatusOK Status = iota
	StatusCreated
	StatusBadRequest
	StatusUnauthorized
	StatusForbidden
	StatusNotFound
	StatusConflict
)

func (s Status) HTTPStatus() int {
	switch s {
	case StatusCreated:
		return http.StatusCreated
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}

// Result is the return value of every dispatched handler. Expected business
// failures (missing post, duplicate username, bad credentials) travel inside
// a failed Result; only infrastructure faults surface as Go errors.
type Result[T any] struct {
	Value      T
	OK         bool
	Status     Status
	ErrMessage string
}

func Success[T any](value T) Result[T] {
	return Result[T]{Value: value, OK: true, Status: StatusOK}
}

func Created[T any](value T) Result[T] {
	return Result[T]{Value: value, OK: true, Status: StatusCreated}
}

func Failure[T any](status Status, message string) Result[T] {
	return Result[T]{OK: false, Status: status, ErrMessage: message}
}
