package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sourcepack/pkg/version"
)

// AppName is attached to every log entry.
const AppName = "sourcepack"

// New builds the process logger. Debug selects zap's development config;
// otherwise the production config logs warnings and errors only, or info as
// well when verbose is set. The logger also replaces zap's globals.
func New(debug, verbose bool) (*zap.Logger, error) {
	var cfg zap.Config

	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(Level(verbose))
	}

	// Add default fields
	cfg.InitialFields = map[string]interface{}{
		"appName":    AppName,
		"appVersion": version.Get().Version,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Level is the production log level for the given verbosity.
func Level(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.InfoLevel
	}
	return zapcore.WarnLevel
}
