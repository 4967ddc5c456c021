package errors

import "net/http"

// ErrorCode is the machine-readable code sent to clients.
type ErrorCode string

const (
	// Broker stopped or Redis unreachable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField         ErrorCode = "MISSING_FIELD"
	ErrCodeStreamingUnsupported ErrorCode = "STREAMING_UNSUPPORTED"

	// Missing or malformed Authorization header.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// Bad signature, wrong algorithm or subject, missing exp.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable:   {http.StatusServiceUnavailable, true},
	ErrCodeRateLimited:          {http.StatusTooManyRequests, true},
	ErrCodeInvalidInput:         {http.StatusBadRequest, false},
	ErrCodeMissingField:         {http.StatusBadRequest, false},
	ErrCodeStreamingUnsupported: {http.StatusInternalServerError, false},
	ErrCodeUnauthorized:         {http.StatusUnauthorized, false},
	ErrCodeTokenExpired:         {http.StatusUnauthorized, false},
	ErrCodeInvalidToken:         {http.StatusUnauthorized, false},
	ErrCodeInternal:             {http.StatusInternalServerError, false},
}

// HTTPStatus returns the status a code is answered with, 500 for unknown codes.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may retry a request that failed with c.
func (c ErrorCode) Retryable() bool {
	return codes[c].retryable
}
