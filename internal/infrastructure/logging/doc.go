// Package logging wraps log/slog for Brewlink.
//
// Every record carries service and version fields; output is JSON for
// production or text for development, selected by config:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// The Logger's variadic key/value methods satisfy the small Logger
// interfaces the s1 bridge, telemetry monitor and MQTT client define
// on their consumer side, so one logger threads through the whole
// service.
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("machine connected", "address", addr)
//
// Never log secrets, tokens or broker passwords.
package logging
