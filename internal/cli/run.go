package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/ffigen/compiler"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/load"
	"github.com/syssam/ffigen/compiler/manifest"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend   string   // compiler variant for source inputs
	Lang      string   // wrapper language, overriding the output extension
	Compiler  string   // compiler executable
	ExtraArgs []string // extra compiler arguments
	Package   string   // Go package name
	NoFormat  bool
	Watch     bool
	Config    string // config file path
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <input> <output>",
		Short: "Generate a wrapper for a source file or manifest",
		Long: `Generate a wrapper for a compiled library.

<input> is either a .fut source, which is compiled first, or the .json
manifest of an already compiled library. The compiled C source and header
are written next to <output>.

Settings may also come from an ffigen.yaml file next to the input, or the
file given by --config. Flags override file values.

Example:
  ffigen run lib.fut lib/lib.go
  ffigen run --backend multicore --extra-arg --safe lib.fut lib.rs
  ffigen run lib.json lib.ml --watch`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", string(manifest.VariantC), "compiler variant for .fut inputs")
	cmd.Flags().StringVar(&opts.Lang, "lang", "", "wrapper language (go|rust|ocaml), default from the output extension")
	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "compiler executable (default futhark)")
	cmd.Flags().StringArrayVar(&opts.ExtraArgs, "extra-arg", nil, "extra compiler argument, may be repeated")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name of generated Go code")
	cmd.Flags().BoolVar(&opts.NoFormat, "no-format", false, "skip the formatter")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "regenerate whenever the input changes")
	cmd.Flags().StringVar(&opts.Config, "config", "", "config file (default ffigen.yaml next to the input)")

	return cmd
}

// merge fills the options not set on the command line from the config
// file.
func (o *RunOptions) merge(cmd *cobra.Command, input string) error {
	path := o.Config
	if path == "" {
		found, err := findConfig(input)
		if err != nil {
			return err
		}
		path = found
	}
	if path == "" {
		return nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	o.Logger().Debug("config", zap.String("file", path))
	flags := cmd.Flags()
	if cfg.Backend != "" && !flags.Changed("backend") {
		o.Backend = cfg.Backend
	}
	if cfg.Lang != "" && !flags.Changed("lang") {
		o.Lang = cfg.Lang
	}
	if cfg.Compiler != "" && !flags.Changed("compiler") {
		o.Compiler = cfg.Compiler
	}
	if len(cfg.ExtraArgs) > 0 && !flags.Changed("extra-arg") {
		o.ExtraArgs = cfg.ExtraArgs
	}
	if cfg.Package != "" && !flags.Changed("package") {
		o.Package = cfg.Package
	}
	if cfg.Format != nil && !flags.Changed("no-format") {
		o.NoFormat = !*cfg.Format
	}
	return nil
}

func runGenerate(opts *RunOptions, input, output string, cmd *cobra.Command) error {
	if err := opts.merge(cmd, input); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	variant, ok := manifest.ParseVariant(opts.Backend)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q: must be one of %s", opts.Backend, variantNames()))
	}
	log := opts.Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ld := &load.Config{
		Variant:   variant,
		Compiler:  opts.Compiler,
		ExtraArgs: opts.ExtraArgs,
		OutputDir: filepath.Dir(output),
		Logger:    log,
	}
	generate := func() error {
		return opts.generate(ctx, ld, input, output, cmd)
	}
	if err := generate(); err != nil {
		if !opts.Watch {
			return WrapExitError(ExitFailure, "generation failed", err)
		}
		log.Warn("generation failed", zap.Error(err))
	}
	if !opts.Watch {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping watch", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	w, err := newWatcher(input, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch input", err)
	}
	defer w.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s. Press Ctrl-C to stop.\n", input)
	if err := w.Run(ctx, generate); err != nil {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	return nil
}

// generate loads the input and writes the wrapper once.
func (o *RunOptions) generate(ctx context.Context, ld *load.Config, input, output string, cmd *cobra.Command) error {
	in, err := ld.Load(ctx, input)
	if err != nil {
		return err
	}
	genOpts := []gen.Option{gen.WithFormat(!o.NoFormat)}
	if o.Package != "" {
		genOpts = append(genOpts, gen.WithPackage(o.Package))
	}
	if in.Package != nil {
		genOpts = append(genOpts, gen.WithHeaderFile(filepath.Base(in.Package.HFile)))
	}
	cfg, err := gen.NewConfig(genOpts...)
	if err != nil {
		return err
	}
	b, err := compiler.BackendNamed(o.Lang, output, cfg)
	if err != nil {
		return err
	}
	if err := gen.Generate(ctx, in.Manifest, b, output, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Generated %s wrapper %s (%d entry point(s), %d type(s))\n",
		b.Name(), output, len(in.Manifest.EntryPoints), len(in.Manifest.Types))
	return nil
}

func variantNames() string {
	names := make([]string, len(manifest.Variants))
	for i, v := range manifest.Variants {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}
