// Package transport is the HTTP surface of sseplex: a Gin server with
// cleartext HTTP/2 that maps
//
//	GET  <prefix>/<topic>   open an event stream (text/event-stream)
//	POST <prefix>/<topic>   publish form field "text", answers "posted"
//	GET  /                  informational page
//	GET  /healthz           aggregated component health
//
// Topic routes pass through the authorization gate when one is configured.
// Publishing is rate limited per client IP when a limiter is configured.
package transport
