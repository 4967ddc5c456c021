// Package config loads sseplex configuration with Viper.
//
// Values come from a YAML file (searched under ./cmd/<name>/config.yml,
// ./config/config.yml and ./config.yml), an optional .env file loaded with
// godotenv, and environment variables carrying the configured prefix:
//
//	SSEPLEX_HTTP_PORT=9090        -> http.port
//	SSEPLEX_HEARTBEAT_ENABLED=1   -> heartbeat.enabled
//
// Aliases map legacy variable names onto nested keys.
package config
