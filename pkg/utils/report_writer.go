/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_writer.go
Description: Utility for writing operation reports to the reports directory.
Handles timestamped, kind-specific subdirectory naming. Ensures directories
exist and writes JSON files for easy analysis.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteReport writes an operation result to the reports directory, grouped by
// report kind and stamped with the wall-clock time and the configuration id.
func WriteReport(reportDir, kind, configID string, result interface{}) (string, error) {
	kindDir := filepath.Join(reportDir, kind)
	if err := os.MkdirAll(kindDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Filename: 2024-06-11_01-30-00_inference_<id>.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_%s.json", timestamp, kind, configID)
	filePath := filepath.Join(kindDir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filePath, nil
}
