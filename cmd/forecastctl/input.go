package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/irfndi/wellcast-go/internal/models"
)

// signalFile accepts either a bare list of signals or {"signals": [...]}
type signalFile struct {
	Signals []models.WellnessSignal `json:"signals" yaml:"signals"`
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func loadSignals(path string, stdin io.Reader) ([]models.WellnessSignal, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("reading signals: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	if isYAML(path) {
		var list []models.WellnessSignal
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var wrapped signalFile
		if err := yaml.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing signals: %w", err)
		}
		return wrapped.Signals, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []models.WellnessSignal
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing signals: %w", err)
		}
		return list, nil
	}
	var wrapped signalFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing signals: %w", err)
	}
	return wrapped.Signals, nil
}

func loadOverride(path string) (*models.ForecastConfigOverride, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config override: %w", err)
	}

	var override models.ForecastConfigOverride
	if isYAML(path) {
		err = yaml.Unmarshal(data, &override)
	} else {
		err = json.Unmarshal(data, &override)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config override: %w", err)
	}
	return &override, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliLogger keeps engine logs on stderr and out of the JSON output
func cliLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
