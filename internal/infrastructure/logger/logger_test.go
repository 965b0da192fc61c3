package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultAndProductionConfig(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "stdout", dev.Output)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
}

func TestNew(t *testing.T) {
	t.Run("nil config falls back to defaults", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("writes json lines to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "medico.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path},
			WithFields(zap.String("service", "medico-backend")))
		require.NoError(t, err)

		l.Info("checkout session created", zap.String("session_id", "cs_test_1"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
		assert.Equal(t, "checkout session created", entry["msg"])
		assert.Equal(t, "medico-backend", entry["service"])
		assert.Equal(t, "cs_test_1", entry["session_id"])
	})

	t.Run("unwritable output is an error", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open log output")
	})

	t.Run("tee duplicates entries", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		l, err := New(&Config{Level: "info", Format: "json", Output: "stderr"}, WithTee(core))
		require.NoError(t, err)

		l.Info("tracking poll")
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "tracking poll", recorded.All()[0].Message)
	})
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			l, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestCreateWriter(t *testing.T) {
	for _, output := range []string{"", "stdout", "STDOUT", "stderr"} {
		w, err := createWriter(output)
		require.NoError(t, err)
		assert.NotNil(t, w)
	}
}

func TestCreateEncoder_Console(t *testing.T) {
	var buf bytes.Buffer
	enc := createEncoder(&Config{Format: "console"})
	l := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.InfoLevel))

	l.Info("selection saved")
	assert.True(t, strings.Contains(buf.String(), "selection saved"))
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNamed(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	l := Named(zap.New(core), "payment")

	l.Info("hello")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "payment", recorded.All()[0].LoggerName)
}

func TestSync(t *testing.T) {
	assert.NoError(t, Sync(zap.NewNop()))
}
