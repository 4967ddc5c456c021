// Package session implements the per-connection lifecycle of a subscriber
// stream: Starting, Active, Stopping and Stopped.
//
// A session owns one broker handle. Serve registers it, writes every event
// for the bound topic as a "data:" frame and always deregisters it on the
// way out, whether the client went away, a write failed or the broker shut
// down.
package session
