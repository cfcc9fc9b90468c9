/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for the Kestrel inference engine. Provides structured
logrus-based logging with timestamped files, JSON and text formats, and helpers for
the inference-specific events (inference runs, validations, comparisons).
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// LogFormat represents the logging format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggerConfig holds the configuration for the logger.
type LoggerConfig struct {
	Level     string    `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"`
	Colors    bool      `json:"colors"`
}

// Validate checks the LoggerConfig for invalid values.
func (c *LoggerConfig) Validate() error {
	switch c.Format {
	case LogFormatJSON, LogFormatText:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger wraps logrus with file output for inference runs.
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	startTime  time.Time
}

// NewLogger creates a new logger instance. A nil config gets sane defaults:
// info level, text format, console only.
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = &LoggerConfig{
			Level:  "info",
			Format: LogFormatText,
			Colors: true,
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}
	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

// setup configures level, formatter, and outputs.
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(l.config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			ForceColors:     l.config.Colors,
			DisableColors:   !l.config.Colors,
		})
	}

	return l.setupFileOutput()
}

// setupFileOutput tees logs into a timestamped file under the output
// directory when one is configured.
func (l *Logger) setupFileOutput() error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("kestrel_%s.log", timestamp)
	path := filepath.Join(l.config.OutputDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.logger.SetOutput(io.MultiWriter(os.Stdout, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Info("Kestrel logging system initialized")

	return nil
}

// LogInference logs the outcome of an inference run.
func (l *Logger) LogInference(configID, vendor, messageType string, sampleCount int, confidence float64) {
	l.logger.WithFields(logrus.Fields{
		"configuration_id": configID,
		"vendor":           vendor,
		"message_type":     messageType,
		"samples":          sampleCount,
		"confidence":       confidence,
	}).Info("Inference run completed")
}

// LogValidation logs a validation outcome.
func (l *Logger) LogValidation(configID string, conformance float64, deviations int) {
	entry := l.logger.WithFields(logrus.Fields{
		"configuration_id": configID,
		"conformance":      conformance,
		"deviations":       deviations,
	})
	if deviations > 0 {
		entry.Warning("Message deviates from configuration")
		return
	}
	entry.Info("Message conforms to configuration")
}

// LogComparison logs a comparison outcome.
func (l *Logger) LogComparison(idA, idB string, similarity float64, differences int) {
	l.logger.WithFields(logrus.Fields{
		"configuration_a": idA,
		"configuration_b": idB,
		"similarity":      similarity,
		"differences":     differences,
	}).Info("Configurations compared")
}

// GetLogger returns the underlying logrus logger.
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// Close closes the logger's file handle.
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		return l.fileHandle.Close()
	}
	return nil
}
