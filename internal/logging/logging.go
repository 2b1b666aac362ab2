// Package logging builds the process-wide zap logger, split out of
// cmd/bv/main.go so both the stdio and HTTP+SSE entrypoints construct it the
// same way (grounded on server/cmd/server/main.go's buildLogger).
package logging

import "go.uber.org/zap"

// Build constructs a zap logger for level ("debug", "info", "warn", "error"),
// using zap's preset output paths (stderr for both presets used here).
func Build(level string) (*zap.Logger, error) {
	cfg := configFor(level)
	return cfg.Build()
}

// BuildForStdio is Build with OutputPaths and ErrorOutputPaths pinned to
// stderr explicitly rather than taken from the zap preset: stdout is
// reserved for JSON-RPC responses on the stdio transport, and any stray log
// line on stdout would corrupt the line-delimited protocol stream.
func BuildForStdio(level string) (*zap.Logger, error) {
	cfg := configFor(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func configFor(level string) zap.Config {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg
}
