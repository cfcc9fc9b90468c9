/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer.go
Description: Inference command implementation for Kestrel. Loads a directory of sample
messages, runs vendor configuration inference, persists the result, and prints a
summary of the inferred patterns and validation rules.
*/

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/kestrel-hl7/pkg/utils"
)

// RunInfer analyzes a sample directory and infers a vendor configuration
func RunInfer(cmd *cobra.Command, args []string) error {
	fmt.Println("🔬 Kestrel - Vendor Configuration Inference")
	fmt.Println("===========================================")
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

	samplesDir := args[0]
	vendor := viper.GetString("vendor")
	messageType := viper.GetString("message_type")
	threshold := viper.GetFloat64("threshold")

	fmt.Printf("📁 Samples directory: %s\n", samplesDir)
	fmt.Printf("🏥 Vendor: %s, message type: %s\n", vendor, messageType)
	fmt.Printf("🎯 Confidence threshold: %.2f\n", threshold)
	fmt.Println()

	samples, err := LoadSampleFiles(samplesDir)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("📭 No sample files found.")
		fmt.Println("   Add sample messages to the directory first.")
		return nil
	}
	fmt.Printf("📊 Loaded %d sample messages\n", len(samples))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := svc.InferFromSamples(ctx, samples, vendor, messageType, threshold)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	logger.LogInference(cfg.ConfigurationID, cfg.Vendor, cfg.MessageType,
		cfg.InferredFrom.SampleCount, cfg.InferredFrom.Confidence)

	if reportDir := viper.GetString("report_dir"); reportDir != "" {
		path, err := utils.WriteReport(reportDir, "inference", cfg.ConfigurationID, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("📝 Report written to %s\n", path)
	}

	fmt.Println("✅ Configuration inferred")
	fmt.Printf("   Id:         %s\n", cfg.ConfigurationID)
	fmt.Printf("   Confidence: %.3f\n", cfg.InferredFrom.Confidence)
	fmt.Printf("   Segments:   %d\n", len(cfg.Segments))
	fmt.Printf("   Rules:      %d\n", len(cfg.ValidationRules))
	for key, value := range cfg.Patterns {
		fmt.Printf("   Pattern %s: %s\n", key, value)
	}

	return nil
}

// RunUpdate folds new samples into a stored configuration
func RunUpdate(cmd *cobra.Command, args []string) error {
	fmt.Println("🔁 Kestrel - Configuration Update")
	fmt.Println("=================================")
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

	configID, samplesDir := args[0], args[1]
	samples, err := LoadSampleFiles(samplesDir)
	if err != nil {
		return err
	}
	fmt.Printf("📊 Folding %d new samples into %s\n", len(samples), configID)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merged, err := svc.UpdateConfigurationFromSamples(ctx, configID, samples)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Println("✅ Configuration updated")
	fmt.Printf("   Id:           %s\n", merged.ConfigurationID)
	fmt.Printf("   Sample count: %d\n", merged.InferredFrom.SampleCount)
	fmt.Printf("   Segments:     %d\n", len(merged.Segments))

	return nil
}
