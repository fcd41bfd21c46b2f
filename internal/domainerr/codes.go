package domainerr

import "net/http"

type Kind string

const (
	KindUnknown            Kind = "UNKNOWN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindForbidden          Kind = "FORBIDDEN"
	KindInvariantViolation Kind = "INVARIANT_VIOLATION"
	KindDomainInvalid      Kind = "DOMAIN_INVALID"
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"
	KindBadRequest         Kind = "BAD_REQUEST"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindTooManyRequests    Kind = "TOO_MANY_REQUESTS"
	KindInternal           Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindForbidden:          http.StatusForbidden,
	KindInvariantViolation: http.StatusConflict,
	KindDomainInvalid:      http.StatusBadRequest,
	KindCapacityExceeded:   http.StatusConflict,
	KindBadRequest:         http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindTooManyRequests:    http.StatusTooManyRequests,
	KindInternal:           http.StatusInternalServerError,
}

// HTTPStatus is the status code a kind surfaces as at the HTTP boundary.
func (k Kind) HTTPStatus() int {
	if code, ok := statusByKind[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// HTTPStatus maps err to a status code; unclassified errors are 500.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
