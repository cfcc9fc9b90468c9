/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validate.go
Description: Validation command implementation for Kestrel. Scores a message file
against a stored vendor configuration and prints the conformance score and the
itemized, severity-ranked format deviations.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/kestrel-hl7/pkg/interfaces"
	"github.com/kleascm/kestrel-hl7/pkg/utils"
)

// RunValidate validates a message file against a stored configuration
func RunValidate(cmd *cobra.Command, args []string) error {
	fmt.Println("🩺 Kestrel - Message Validation")
	fmt.Println("===============================")
	fmt.Println()

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	svc, err := NewService(logger.GetLogger())
	if err != nil {
		return err
	}

	configID, messageFile := args[0], args[1]
	raw, err := os.ReadFile(messageFile)
	if err != nil {
		return fmt.Errorf("failed to read message file: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	score, deviations, err := svc.ValidateAgainstConfig(ctx, configID, string(raw))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	logger.LogValidation(configID, score, len(deviations))

	if reportDir := viper.GetString("report_dir"); reportDir != "" {
		report := struct {
			ConfigurationID string                       `json:"configurationId"`
			MessageFile     string                       `json:"messageFile"`
			Conformance     float64                      `json:"conformance"`
			Deviations      []interfaces.FormatDeviation `json:"deviations"`
		}{configID, messageFile, score, deviations}
		path, err := utils.WriteReport(reportDir, "validation", configID, report)
		if err != nil {
			return err
		}
		fmt.Printf("📝 Report written to %s\n", path)
	}

	fmt.Printf("📐 Conformance score: %.3f\n", score)
	if len(deviations) == 0 {
		fmt.Println("✅ No deviations detected")
		return nil
	}

	fmt.Printf("⚠️  %d deviation(s):\n", len(deviations))
	for _, dev := range deviations {
		fmt.Printf("   [%s] %s at %s: detected %q, expected %q (x%d)\n",
			dev.Severity, dev.Type, dev.Location, dev.DetectedValue, dev.ExpectedValue, dev.Frequency)
	}

	return nil
}
