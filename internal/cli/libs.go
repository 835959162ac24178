package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/ffigen/compiler/manifest"
)

// LibsOptions holds flags for the libs command.
type LibsOptions struct {
	*RootOptions
	Backend string
	Flags   bool // print linker flags instead of names
}

// NewLibsCommand creates the libs command.
func NewLibsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "libs",
		Short: "List the native libraries a variant links against",
		Long: `List the native libraries a binary must link against to use a
library compiled with the given variant, one per line.

Example:
  ffigen libs --backend cuda
  ffigen libs --backend multicore --flags`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, ok := manifest.ParseVariant(opts.Backend)
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q: must be one of %s", opts.Backend, variantNames()))
			}
			for _, lib := range variant.RequiredLibs() {
				if opts.Flags {
					lib = "-l" + lib
				}
				fmt.Fprintln(cmd.OutOrStdout(), lib)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", string(manifest.VariantC), "compiler variant")
	cmd.Flags().BoolVar(&opts.Flags, "flags", false, "print linker flags (-lNAME)")

	return cmd
}
