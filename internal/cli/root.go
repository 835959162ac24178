// Package cli implements the ffigen command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/ffigen/compiler/gen"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	log *zap.Logger
}

// Logger returns the logger installed by the root command, or a no-op
// logger.
func (o *RootOptions) Logger() *zap.Logger {
	if o == nil || o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

// NewRootCommand creates the root command for the ffigen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ffigen",
		Short: "ffigen - foreign function wrappers for compiled array libraries",
		Long: `Generate Go, Rust or OCaml wrappers for a compiled Futhark library.

The wrapper language follows from the output file extension (.go, .rs, .ml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			opts.log = l
			gen.SetLogger(l)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewLibsCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
