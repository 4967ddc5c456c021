// Package relay decides how published messages reach the broker.
//
// Local hands them straight to the in-process broker. Redis routes them
// through Redis pub/sub so that every sseplex instance pointed at the same
// Redis delivers them to its own subscribers.
package relay
