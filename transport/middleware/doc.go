// Package middleware holds the Gin middleware stack of the HTTP transport:
// panic recovery, request ids, request logging, CORS and publish rate
// limiting.
package middleware
