package main

import (
	"context"
	"os"
	rdebug "runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/cmd/sfc-typer/check"
	print_mask "github.com/walteh/go-sfc-typer/cmd/sfc-typer/print-mask"
	print_regions "github.com/walteh/go-sfc-typer/cmd/sfc-typer/print-regions"
	print_template "github.com/walteh/go-sfc-typer/cmd/sfc-typer/print-template"
	show_config "github.com/walteh/go-sfc-typer/cmd/sfc-typer/show-config"
	"github.com/walteh/go-sfc-typer/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		verbose bool
		noColor bool
	)

	rootCmd := &cobra.Command{
		Use:           "sfc-typer",
		Short:         "Editor tooling for single-file components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := debug.NewLogger(cmd.ErrOrStderr(), debug.LoggerOptions{
			Level:     level,
			WithColor: !noColor,
			Console:   true,
		})
		cmd.SetContext(logger.WithContext(cmd.Context()))
	}

	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(print_regions.NewPrintRegionsCommand())
	rootCmd.AddCommand(print_mask.NewPrintMaskCommand())
	rootCmd.AddCommand(print_template.NewPrintTemplateCommand())
	rootCmd.AddCommand(show_config.NewShowConfigCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
