// Package security holds the TLS settings shared by the HTTP listener and
// the Redis relay client.
//
//	cfg := security.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
//	serverTLS, err := cfg.ServerConfig()
package security
