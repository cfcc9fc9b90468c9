/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for the Kestrel inference engine. Provides
commands for inferring vendor configurations from sample batches, validating messages
against stored configurations, comparing and merging configurations, and managing the
configuration store.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/kestrel-hl7/cmd/kestrel/commands"
)

var (
	// Configuration
	configFile string
	logLevel   string
	logDir     string
	logFormat  string

	// Store configuration
	configDir string

	// Delimiter configuration
	fieldDelimiter     string
	componentDelimiter string

	// Report configuration
	reportDir string

	// Inference configuration
	vendor        string
	messageType   string
	threshold     float64
	sampleWorkers int

	// Similarity configuration
	similarityThreshold float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Kestrel - HL7 vendor configuration inference engine",
		Long: `Kestrel ingests batches of pipe-delimited healthcare interchange messages and
infers vendor configurations: statistically-supported, confidence-scored descriptions
of how a sending system populates message fields, with generated validation rules and
machinery to validate, compare, merge, and persist configurations over time.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty = console only)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./configurations", "Directory for stored vendor configurations")
	rootCmd.PersistentFlags().StringVar(&fieldDelimiter, "field-delimiter", "|", "Field delimiter character")
	rootCmd.PersistentFlags().StringVar(&componentDelimiter, "component-delimiter", "^", "Component delimiter character")
	rootCmd.PersistentFlags().IntVar(&sampleWorkers, "workers", 0, "Number of analysis workers (0 = auto-detect)")
	rootCmd.PersistentFlags().StringVar(&reportDir, "report-dir", "", "Directory for JSON operation reports (empty = disabled)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	viper.BindPFlag("field_delimiter", rootCmd.PersistentFlags().Lookup("field-delimiter"))
	viper.BindPFlag("component_delimiter", rootCmd.PersistentFlags().Lookup("component-delimiter"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("report_dir", rootCmd.PersistentFlags().Lookup("report-dir"))

	// Add infer command
	inferCmd := &cobra.Command{
		Use:   "infer <samples-dir>",
		Short: "Infer a vendor configuration from a directory of sample messages",
		Long: `Analyze a batch of sample messages and infer a vendor configuration: field
patterns, confidence scores, message-level patterns, and generated validation rules.
The configuration is persisted to the configuration store.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunInfer,
	}
	inferCmd.Flags().StringVar(&vendor, "vendor", "", "Vendor name for the configuration (required)")
	inferCmd.Flags().StringVar(&messageType, "message-type", "", "Message type, e.g. ADT (required)")
	inferCmd.Flags().Float64Var(&threshold, "threshold", 0.7, "Confidence threshold for including patterns")
	inferCmd.MarkFlagRequired("vendor")
	inferCmd.MarkFlagRequired("message-type")
	viper.BindPFlag("vendor", inferCmd.Flags().Lookup("vendor"))
	viper.BindPFlag("message_type", inferCmd.Flags().Lookup("message-type"))
	viper.BindPFlag("threshold", inferCmd.Flags().Lookup("threshold"))
	rootCmd.AddCommand(inferCmd)

	// Add validate command
	validateCmd := &cobra.Command{
		Use:   "validate <configuration-id> <message-file>",
		Short: "Validate a message against a stored configuration",
		Long: `Score a message's conformance against a stored vendor configuration and report
typed, severity-ranked format deviations.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunValidate,
	}
	rootCmd.AddCommand(validateCmd)

	// Add compare command
	compareCmd := &cobra.Command{
		Use:   "compare <configuration-id-a> <configuration-id-b>",
		Short: "Compare two stored configurations",
		Long: `Compute a similarity score and itemized Added/Removed/Modified differences
between two stored vendor configurations.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunCompare,
	}
	rootCmd.AddCommand(compareCmd)

	// Add similar command
	similarCmd := &cobra.Command{
		Use:   "similar <configuration-id>",
		Short: "Find stored configurations similar to a target",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunSimilar,
	}
	similarCmd.Flags().Float64Var(&similarityThreshold, "similarity-threshold", 0.8, "Minimum similarity score")
	viper.BindPFlag("similarity_threshold", similarCmd.Flags().Lookup("similarity-threshold"))
	rootCmd.AddCommand(similarCmd)

	// Add update command
	updateCmd := &cobra.Command{
		Use:   "update <configuration-id> <samples-dir>",
		Short: "Fold new samples into a stored configuration",
		Long: `Infer a configuration from new samples and merge it over the stored one under
the last-writer-wins conflict policy, then persist the result.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunUpdate,
	}
	rootCmd.AddCommand(updateCmd)

	// Add list command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored configurations",
		RunE:  commands.RunList,
	}
	listCmd.Flags().String("vendor", "", "Filter by vendor name")
	listCmd.Flags().String("message-type", "", "Filter by message type")
	viper.BindPFlag("list_vendor", listCmd.Flags().Lookup("vendor"))
	viper.BindPFlag("list_message_type", listCmd.Flags().Lookup("message-type"))
	rootCmd.AddCommand(listCmd)

	// Add delete command
	deleteCmd := &cobra.Command{
		Use:   "delete <configuration-id>",
		Short: "Delete a stored configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunDelete,
	}
	rootCmd.AddCommand(deleteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
