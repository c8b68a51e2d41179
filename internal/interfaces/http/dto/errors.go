package dto

import (
	"net/http"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// General error codes
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
)

// errorKindHTTPStatus maps domain error kinds to HTTP status codes.
// State conflicts and integrity violations both surface as 409: the
// request was well formed but the system's current state forbids it.
var errorKindHTTPStatus = map[shared.ErrorKind]int{
	shared.ErrorKindValidation:    http.StatusBadRequest,
	shared.ErrorKindStateConflict: http.StatusConflict,
	shared.ErrorKindAuthorization: http.StatusForbidden,
	shared.ErrorKindIntegrity:     http.StatusConflict,
	shared.ErrorKindNotFound:      http.StatusNotFound,
}

// HTTPStatusForKind returns the HTTP status for a domain error kind.
// Unknown kinds map to 500 Internal Server Error.
func HTTPStatusForKind(kind shared.ErrorKind) int {
	if status, ok := errorKindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
