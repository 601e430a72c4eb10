package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{input: "debug", expected: zap.DebugLevel},
		{input: " WARN ", expected: zap.WarnLevel},
		{input: "warning", expected: zap.WarnLevel},
		{input: "error", expected: zap.ErrorLevel},
		{input: "info", expected: zap.InfoLevel},
		{input: "", expected: zap.InfoLevel},
		{input: "verbose", expected: zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Setenv("GO_ENV", "production")

	log, err := New("error")
	assert.NoError(t, err)
	assert.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.ErrorLevel))
}
