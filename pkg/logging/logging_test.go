package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		verbose  bool
		enabled  zapcore.Level
		disabled zapcore.Level
		checkOff bool
	}{
		{"default", false, false, zapcore.WarnLevel, zapcore.InfoLevel, true},
		{"verbose", false, true, zapcore.InfoLevel, zapcore.DebugLevel, true},
		{"debug", true, false, zapcore.DebugLevel, zapcore.DebugLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.debug, tt.verbose)
			require.NoError(t, err)
			t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

			assert.True(t, logger.Core().Enabled(tt.enabled))
			if tt.checkOff {
				assert.False(t, logger.Core().Enabled(tt.disabled))
			}
			assert.Same(t, logger, zap.L())
		})
	}
}
