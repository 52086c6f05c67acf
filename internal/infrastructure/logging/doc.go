// Package logging provides structured logging for the curtain skill.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same format and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("skill started", "intent_topic", cfg.Skill.IntentTopic)
//	logger.Error("failed to publish", "topic", topic, "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
