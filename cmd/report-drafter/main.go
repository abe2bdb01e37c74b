// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the report-drafter CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/report-drafter/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// apiKeys holds the provider keys loaded from .secrets/ at startup.
var apiKeys *secrets.Keys

// logger is built in PersistentPreRunE.
var logger = zap.NewNop()

// rootCmd is the base command for the report-drafter CLI.
var rootCmd = &cobra.Command{
	Use:   "report-drafter",
	Short: "Draft teaching-initiative reports section by section",
	Long: `report-drafter writes teaching-initiative reports with a generative-text
model. Each standard section is drafted in one call; the measures section
can be written with the Deep Dive workflow, which proposes a list of
measures, lets you review it, and then writes every measure in turn.

Calls to the model are paced: at least 12 seconds apart, and 20 seconds
between measures during a Deep Dive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l

		keys, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		apiKeys = keys
		if names := keys.Names(); len(names) > 0 {
			logger.Debug("secrets loaded", zap.Strings("keys", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./report-drafter.yaml or ~/.config/report-drafter/report-drafter.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding the report database and exports")
	rootCmd.PersistentFlags().String("provider", "gemini", "generation backend: gemini, openai, claude, or mock")
	rootCmd.PersistentFlags().String("model", "", "model identifier (default depends on the provider)")

	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai.model", rootCmd.PersistentFlags().Lookup("model"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-drafter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-drafter"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("REPORT_DRAFTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
