package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/unicorn"
	"github.com/aretw0/unicorn/internal/presentation/tui"
	"github.com/aretw0/unicorn/pkg/adapters/file"
	"github.com/aretw0/unicorn/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var composeCmd = &cobra.Command{
	Use:   "compose [table]",
	Short: "Type mnemonics interactively",
	Long: `Reads keys one at a time and prints the actions they produce.
Type the trigger (\ by default) and a mnemonic. While candidates are shown,
digits 1-9 highlight one and the trigger commits it. Esc abandons the
composition; Ctrl-C or Ctrl-D exits.

With --json, each input line is a request ({"key":"a"}, {"select":1},
{"deactivate":true} or {"quit":true}) and each output line a result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Trie = args[0]
		}
		logger := createLogger(cfg)

		engine, err := newEngine(cfg, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if err := watchEngine(ctx, newLoader(cfg, logger), engine, logger); err != nil {
				return err
			}
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		noDigits, _ := cmd.Flags().GetBool("no-digit-select")
		in, out := cmd.InOrStdin(), cmd.OutOrStdout()

		var handler runner.IOHandler
		if jsonMode {
			quiet = true
			handler = runner.NewJSONHandler(in, out)
		} else {
			var opts []runner.TextHandlerOption
			fd := int(os.Stdin.Fd())
			if in == os.Stdin && term.IsTerminal(fd) {
				oldState, err := term.MakeRaw(fd)
				if err != nil {
					return fmt.Errorf("failed to enter raw mode: %w", err)
				}
				defer func() { _ = term.Restore(fd, oldState) }()
				// Raw mode disables output post-processing.
				opts = append(opts, runner.WithRawNewlines())
			}
			textHandler := runner.NewTextHandler(in, out, opts...)
			handler = textHandler

			if !quiet {
				tui.FprintBanner(out, unicorn.Version)
				fmt.Fprintf(out, "Trigger: %s  (Ctrl-C to quit)%s", string(cfg.TriggerRune()), textHandler.Newline)
			}
		}

		r := runner.NewRunner(
			runner.WithInputHandler(handler),
			runner.WithLogger(logger),
			runner.WithDigitSelect(!noDigits),
		)
		committed, err := r.Run(ctx, engine)
		if committed != "" && !quiet {
			fmt.Fprintf(out, "\nCommitted: %s\n", committed)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
	composeCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and summary")
	composeCmd.Flags().Bool("json", false, "Speak JSON lines instead of reading raw keys")
	composeCmd.Flags().Bool("no-digit-select", false, "Never treat digits as candidate picks")
	composeCmd.Flags().BoolP("watch", "w", false, "Reload the table when the file changes, keeping the composition")
}

// watchEngine hot-reloads the table into a running engine until ctx is done.
func watchEngine(ctx context.Context, loader *file.Loader, engine *unicorn.Engine, logger *slog.Logger) error {
	changes, err := loader.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			t, err := loader.Load(ctx)
			if err != nil {
				logger.Error("Reload failed, keeping previous table", "path", loader.Path(), "err", err)
				continue
			}
			if err := engine.Reload(t); err != nil {
				logger.Error("Reload failed", "err", err)
			}
		}
	}()
	return nil
}
