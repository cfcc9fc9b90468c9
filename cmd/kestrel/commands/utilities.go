/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for Kestrel. Provides configuration store listing and
deletion for managing inferred vendor configurations.
*/

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunList lists stored configurations, optionally filtered
func RunList(cmd *cobra.Command, args []string) error {
	fmt.Println("🗂️  Kestrel - Stored Configurations")
	fmt.Println("==================================")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configs, err := svc.ListConfigurations(ctx, viper.GetString("list_vendor"), viper.GetString("list_message_type"))
	if err != nil {
		return fmt.Errorf("failed to list configurations: %w", err)
	}

	if len(configs) == 0 {
		fmt.Println("📭 No configurations stored.")
		return nil
	}

	for _, cfg := range configs {
		fmt.Printf("   %s  %-12s %-6s confidence=%.3f samples=%d\n",
			cfg.ConfigurationID, cfg.Vendor, cfg.MessageType,
			cfg.InferredFrom.Confidence, cfg.InferredFrom.SampleCount)
	}
	fmt.Println()
	fmt.Printf("📊 %d configuration(s)\n", len(configs))

	return nil
}

// RunDelete deletes a stored configuration
func RunDelete(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deleted, err := svc.DeleteConfiguration(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	if deleted {
		fmt.Printf("🗑️  Deleted configuration %s\n", args[0])
	} else {
		fmt.Printf("📭 No configuration found for %s\n", args[0])
	}

	return nil
}
