package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/varcalc/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := NewWithWriter(&buf)

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
		{"debugf", func() { log.Debugf("symbol: %s, window: %d", "INFY.NS", 252) }, "symbol: INFY.NS, window: 252", "debug"},
		{"infof", func() { log.Infof("count: %d", 42) }, "count: 42", "info"},
		{"warnf", func() { log.Warnf("retry attempt: %d", 3) }, "retry attempt: 3", "warn"},
		{"errorf", func() { log.Errorf("failed to fetch: %s", "timeout") }, "failed to fetch: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := NewWithWriter(&buf)

	log.WithFields(map[string]interface{}{
		"symbol":   "INFY.NS",
		"exchange": "NSE",
		"window":   252,
	}).WithField("run_id", "abc").Info("fetched")

	entry := decode(t, &buf)
	assert.Equal(t, "INFY.NS", entry["symbol"])
	assert.Equal(t, "NSE", entry["exchange"])
	assert.Equal(t, float64(252), entry["window"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestWithErrorAndComponent(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := NewWithWriter(&buf)

	log.Component("marketdata").WithError(errors.New("connection refused")).Error("fetch failed")

	entry := decode(t, &buf)
	assert.Equal(t, "marketdata", entry["component"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "fetch failed", entry["message"])
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Component("x").Info("discarded")
	assert.NoError(t, log.Close())
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "varcalc.log")
	log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: "json", LogFile: path})
	log.WithField("symbol", "TCS.BO").Info("written to file")
	require.NoError(t, log.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var found bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "written to file") {
			found = true
			assert.Contains(t, scanner.Text(), `"symbol":"TCS.BO"`)
		}
	}
	assert.True(t, found)
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			// stderr 임시 교체
			oldStderr := os.Stderr
			r, w, _ := os.Pipe()
			os.Stderr = w

			log := New(&config.Config{Env: "test", LogLevel: "info", LogFormat: format})
			log.Info("test message")

			w.Close()
			os.Stderr = oldStderr

			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)
			assert.Contains(t, buf.String(), "test message")
		})
	}
}
