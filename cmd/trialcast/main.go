// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trialcast CLI, the two-stage
// RCT podcast pipeline: fetch discovers and selects a recent randomized
// trial and emits a structured card; appraise turns that card into a
// CONSORT-oriented critical appraisal.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialcast/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, then the secret value for
// key, then the environment variable env.
func secretDefault(key, env, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return os.Getenv(env)
}

// rootCmd is the base command for the trialcast CLI.
var rootCmd = &cobra.Command{
	Use:   "trialcast",
	Short: "Anesthesia RCT discovery and critical appraisal pipeline",
	Long: `trialcast runs a two-stage pipeline over the anesthesia RCT literature.

The fetch stage searches PubMed for recent randomized controlled trials,
filters them down to human anesthesia studies, scores them for podcast
interestingness, picks one that has not been featured before, and writes
a structured trial card. The appraise stage retrieves the article's full
text, screens it for CONSORT reporting gaps, and produces an LLM-written
critical appraisal for expert clinicians.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env values fill the environment without clobbering real vars.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trialcast.yaml or ~/.config/trialcast/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trialcast")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trialcast"))
		}
	}

	viper.SetEnvPrefix("TRIALCAST")
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
