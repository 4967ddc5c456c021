// Package logger is the zerolog-backed structured logger used across sseplex.
//
// Long-lived parts (broker, sessions, transport, relay) log through a
// component-tagged Logger obtained from Get:
//
//	log := logger.Get("broker")
//	log.Info("Topic created", logger.Fields(logger.FieldTopic, "news"))
//
// Configuration lives under the logging section:
//
//	logging:
//	  level: info       # trace, debug, info, warn, error
//	  format: console   # or json
package logger
