/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Kestrel commands. Provides common configuration
loading, logging setup, store and service construction, and sample-file loading used
across all command implementations.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/kleascm/kestrel-hl7/pkg/logging"
	"github.com/kleascm/kestrel-hl7/pkg/message"
	"github.com/kleascm/kestrel-hl7/pkg/service"
	"github.com/kleascm/kestrel-hl7/pkg/storage"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("KESTREL")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system from viper settings
func SetupLogging() (*logging.Logger, error) {
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     viper.GetString("log_level"),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		Colors:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// Delimiters builds the message delimiters from viper settings
func Delimiters() message.Delimiters {
	delims := message.DefaultDelimiters()
	if d := viper.GetString("field_delimiter"); d != "" {
		delims.Field = d
	}
	if d := viper.GetString("component_delimiter"); d != "" {
		delims.Component = d
	}
	return delims
}

// NewService constructs the inference service over a file store rooted at
// the configured directory
func NewService(logger *logrus.Logger) (*service.Service, error) {
	configDir := viper.GetString("config_dir")
	if configDir == "" {
		configDir = "./configurations"
	}

	store, err := storage.NewFileStore(configDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration store: %w", err)
	}

	svc := service.NewService(store, logger, Delimiters())
	if workers := viper.GetInt("workers"); workers > 0 {
		svc.SetWorkers(workers)
	}
	return svc, nil
}

// LoadSampleFiles reads every regular file under a directory as one raw
// message. Unreadable files are reported and skipped.
func LoadSampleFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("samples directory not found: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to read samples directory: %w", err)
	}

	samples := make([]string, 0, len(files))
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("  ❌ Failed to read sample file %s: %v\n", filepath.Base(file), err)
			continue
		}
		samples = append(samples, string(data))
	}

	return samples, nil
}
