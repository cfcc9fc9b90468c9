/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compare.go
Description: Comparison commands for Kestrel. Compares two stored configurations with
itemized differences, and searches the store for configurations similar to a target.
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

// RunCompare compares two stored configurations
func RunCompare(cmd *cobra.Command, args []string) error {
	fmt.Println("⚖️  Kestrel - Configuration Comparison")
	fmt.Println("=====================================")
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

	idA, idB := args[0], args[1]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comparison, err := svc.CompareConfigurations(ctx, idA, idB)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	logger.LogComparison(idA, idB, comparison.SimilarityScore, len(comparison.Differences))

	fmt.Printf("📐 Similarity: %.3f\n", comparison.SimilarityScore)
	if len(comparison.Differences) == 0 {
		fmt.Println("✅ Configurations are identical")
		return nil
	}

	fmt.Printf("🔀 %d difference(s):\n", len(comparison.Differences))
	for _, diff := range comparison.Differences {
		switch diff.Type {
		case "added":
			fmt.Printf("   + %s: %s\n", diff.FieldPath, diff.NewValue)
		case "removed":
			fmt.Printf("   - %s: %s\n", diff.FieldPath, diff.OldValue)
		default:
			fmt.Printf("   ~ %s: %s -> %s\n", diff.FieldPath, diff.OldValue, diff.NewValue)
		}
	}

	return nil
}

// RunSimilar finds stored configurations similar to a target
func RunSimilar(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Kestrel - Similarity Search")
	fmt.Println("==============================")
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

	target, err := svc.LoadConfiguration(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load target configuration: %w", err)
	}

	similar, err := svc.FindSimilarConfigurations(ctx, target, viper.GetFloat64("similarity_threshold"))
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if len(similar) == 0 {
		fmt.Println("📭 No similar configurations found.")
		return nil
	}

	fmt.Printf("📊 %d similar configuration(s):\n", len(similar))
	for _, match := range similar {
		fmt.Printf("   %.3f  %s  (%s / %s)\n", match.Similarity,
			match.Configuration.ConfigurationID, match.Configuration.Vendor, match.Configuration.MessageType)
	}

	return nil
}
