package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/unicorn"
	"github.com/aretw0/unicorn/internal/config"
	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/adapters/file"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "unicorn",
	Short: "Unicorn composes Unicode symbols from short mnemonic sequences",
	Long: `Unicorn is an input-method engine: type a trigger (\ by default) followed by a
mnemonic such as "beta" and it produces β. Mnemonics live in a JSON, YAML or TOML table.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (TOML or YAML)")
	rootCmd.PersistentFlags().StringP("trie", "t", "", "Mnemonic table (overrides config)")
	rootCmd.PersistentFlags().String("trigger", "", "Composition trigger character (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("strict", false, "Validate JSON tables against the schema")
}

// loadConfig merges the config file, environment and command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("trie") {
		cfg.Trie, _ = flags.GetString("trie")
	}
	if flags.Changed("trigger") {
		cfg.Trigger, _ = flags.GetString("trigger")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createLogger(cfg *config.Config) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	return logging.New(level)
}

func newLoader(cfg *config.Config, logger *slog.Logger) *file.Loader {
	return file.NewLoader(cfg.Trie, file.WithStrict(cfg.Strict), file.WithLogger(logger))
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*unicorn.Engine, error) {
	return unicorn.NewFromPath(cfg.Trie,
		unicorn.WithTrigger(cfg.TriggerRune()),
		unicorn.WithStrict(cfg.Strict),
		unicorn.WithLogger(logger),
	)
}

// loadTrie reads the table named by args[0], or by the config when args is empty.
func loadTrie(cmd *cobra.Command, args []string) (*trie.Trie, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		cfg.Trie = args[0]
	}
	t, err := newLoader(cfg, createLogger(cfg)).Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return t, cfg, nil
}
