// Package errors defines AppError, the error the HTTP layer knows how to
// answer with. Each ErrorCode fixes the response status and whether the
// client may retry.
package errors
