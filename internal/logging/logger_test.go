package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"trace", logrus.TraceLevel},
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"nonsense", logrus.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogrusLevel(tt.input), tt.input)
	}
}

func TestNewLogger_Formatters(t *testing.T) {
	dev := NewLogger("debug", "development")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())

	prod := NewLogger("warn", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
	assert.Equal(t, logrus.WarnLevel, prod.GetLevel())
}

func TestForUserAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "production")

	ForUser(logger, "user-42").WithField("component", "engine").Info("forecast ready")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user-42", line["user_id"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "forecast ready", line["message"])

	assert.Equal(t, "cache", ForComponent(logger, "cache").Data["component"])
	assert.Equal(t, "req-1", ForRequest(logger, "req-1").Data["request_id"])
}

func TestLogAPIRequest_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warning"},
		{503, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(&buf, "info", "production")

		LogAPIRequest(logrus.NewEntry(logger), "GET", "/health", tt.status, 15*time.Millisecond)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, tt.level, line["level"])
		assert.Equal(t, float64(tt.status), line["status"])
		assert.Equal(t, float64(15), line["duration_ms"])
	}
}

func TestLogStartupAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "production")

	LogStartup(logger, "wellcast", "1.0.0", 8080)
	LogShutdown(logger, "wellcast", "signal")

	assert.Contains(t, buf.String(), `"event":"startup"`)
	assert.Contains(t, buf.String(), `"event":"shutdown"`)
}
