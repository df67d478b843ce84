package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wellcast-go/internal/middleware"
	"github.com/irfndi/wellcast-go/internal/models"
)

var evalTime = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func healthyCheckIns(n int) string {
	var items []string
	for i := 0; i < n; i++ {
		ts := evalTime.Add(-time.Duration(i+1) * 12 * time.Hour).Format(time.RFC3339)
		items = append(items, fmt.Sprintf(
			`{"type":"check-in","timestamp":%q,"value":0,"metadata":{"emotionalState":"good","energyLevel":"good","stressLevel":"low"}}`, ts))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestCommandFlags(t *testing.T) {
	compute := newComputeCmd()
	for _, flag := range []string{"signals", "user", "config", "at", "verbose"} {
		assert.NotNil(t, compute.Flags().Lookup(flag), "missing flag: %s", flag)
	}

	score := newScoreCmd()
	output, _ := score.Flags().GetString("output")
	assert.Equal(t, "text", output)

	token := newTokenCmd()
	ttl, _ := token.Flags().GetDuration("ttl")
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestCompute(t *testing.T) {
	path := writeFile(t, "signals.json", healthyCheckIns(6))

	out, err := execute(t, "", "compute", "--signals", path, "--user", "alice", "--at", evalTime.Format(time.RFC3339))
	require.NoError(t, err)

	var forecast models.BurnoutForecast
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.Equal(t, "alice", forecast.UserID)
	assert.Equal(t, models.RiskLevelLow, forecast.RiskLevel)
	assert.False(t, forecast.IsDegraded())
	assert.NotEmpty(t, forecast.Recommendations)
	assert.True(t, forecast.Timestamp.Equal(evalTime))
}

func TestCompute_WrappedYAMLSignals(t *testing.T) {
	path := writeFile(t, "signals.yaml", `signals:
  - type: sleep
    timestamp: 2024-03-14T07:00:00Z
    value: 0
    metadata:
      sleepDuration: less-than-5
      sleepQuality: very-poor
`)

	out, err := execute(t, "", "compute", "--signals", path, "--user", "bob", "--at", evalTime.Format(time.RFC3339))
	require.NoError(t, err)

	var forecast models.BurnoutForecast
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.True(t, forecast.IsDegraded())
}

func TestCompute_EmptyStdinIsDegraded(t *testing.T) {
	out, err := execute(t, "", "compute", "--signals", "-", "--user", "alice")
	require.NoError(t, err)

	var forecast models.BurnoutForecast
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.Equal(t, models.PrimaryFactorDataInsufficiency, forecast.PrimaryFactor.Category)
	assert.Len(t, forecast.Recommendations, 3)
}

func TestCompute_ConfigOverride(t *testing.T) {
	signals := writeFile(t, "signals.json", healthyCheckIns(6))
	override := writeFile(t, "override.yaml", "minSignalsRequired: 10\n")

	out, err := execute(t, "", "compute", "--signals", signals, "--user", "alice",
		"--config", override, "--at", evalTime.Format(time.RFC3339))
	require.NoError(t, err)

	var forecast models.BurnoutForecast
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.True(t, forecast.IsDegraded())
}

func TestCompute_Errors(t *testing.T) {
	signals := writeFile(t, "signals.json", healthyCheckIns(2))

	_, err := execute(t, "", "compute", "--signals", signals)
	assert.Error(t, err)

	_, err = execute(t, "", "compute", "--signals", signals, "--user", "alice", "--at", "yesterday")
	assert.ErrorContains(t, err, "invalid --at time")

	bad := writeFile(t, "override.json", `{"analysisWindow":0}`)
	_, err = execute(t, "", "compute", "--signals", signals, "--user", "alice", "--config", bad)
	assert.Error(t, err)

	missingTimestamp := writeFile(t, "broken.json", `[{"type":"check-in"}]`)
	_, err = execute(t, "", "compute", "--signals", missingTimestamp, "--user", "alice")
	assert.ErrorContains(t, err, "timestamp is required")
}

func TestScore(t *testing.T) {
	input := `[
		{"type":"sleep","timestamp":"2024-03-14T07:00:00Z","metadata":{"sleepDuration":"8+","sleepQuality":"excellent"}},
		{"type":"activity","timestamp":"2024-03-14T18:00:00Z","metadata":{"workHours":"12+","breakFrequency":"none"}}
	]`

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, input, "score", "--signals", "-", "--output", "json")
		require.NoError(t, err)

		var summary scoreSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		require.Len(t, summary.Scores, 2)
		assert.InDelta(t, 55.0, summary.Scores[0].Score, 1e-9)
		assert.InDelta(t, -60.0, summary.Scores[1].Score, 1e-9)
		assert.Equal(t, 1, summary.Counts["positive"])
		assert.Equal(t, 1, summary.Counts["negative"])
		assert.Equal(t, 0, summary.Counts["neutral"])
	})

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, input, "score", "--signals", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "CATEGORY")
		assert.Contains(t, out, "55.00")
		assert.Contains(t, out, "negative")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, input, "score", "--signals", "-", "--output", "xml")
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestToken(t *testing.T) {
	out, err := execute(t, "", "token", "--user", "lead", "--role", middleware.RoleManager, "--secret", "cli-secret")
	require.NoError(t, err)

	claims, err := middleware.NewAuthMiddleware("cli-secret", true).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "lead", claims.UserID)
	assert.Equal(t, middleware.RoleManager, claims.Role)

	t.Setenv("JWT_SECRET", "")
	_, err = execute(t, "", "token", "--user", "lead")
	assert.ErrorContains(t, err, "signing secret is required")
}
