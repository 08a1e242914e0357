package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"  INFO  ", zerolog.InfoLevel},
		{"Debug", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in, zerolog.InfoLevel), "input %q", tt.in)
	}
}

func TestParseLevel_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLevel("verbose", zerolog.WarnLevel))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("", zerolog.InfoLevel))
}
