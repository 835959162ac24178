// Package futhark runs the external compiler that turns a source file into
// a C library and a manifest.
package futhark

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// DefaultExecutable is the compiler looked up on PATH.
const DefaultExecutable = "futhark"

// Compiler compiles one source file with one variant.
type Compiler struct {
	exe       string
	variant   manifest.Variant
	src       string
	extraArgs []string
	outputDir string
	log       *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithExecutable sets the compiler executable.
func WithExecutable(name string) Option {
	return func(c *Compiler) {
		if name != "" {
			c.exe = name
		}
	}
}

// WithExtraArgs passes extra arguments to the compiler, after the variant.
func WithExtraArgs(args ...string) Option {
	return func(c *Compiler) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// WithOutputDir sets the directory the library is written to. It defaults
// to the directory of the source file.
func WithOutputDir(dir string) Option {
	return func(c *Compiler) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithLogger sets the logger of the compiler.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCompiler returns a compiler of src for the given variant.
func NewCompiler(variant manifest.Variant, src string, opts ...Option) *Compiler {
	c := &Compiler{
		exe:       DefaultExecutable,
		variant:   variant,
		src:       src,
		outputDir: filepath.Dir(src),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Output returns the path, without extension, of the files the compiler
// writes.
func (c *Compiler) Output() string {
	base := filepath.Base(c.src)
	return filepath.Join(c.outputDir, strings.TrimSuffix(base, filepath.Ext(base)))
}

// Args returns the command line arguments of a compiler run.
func (c *Compiler) Args() []string {
	args := []string{c.variant.String()}
	args = append(args, c.extraArgs...)
	return append(args, "-o", c.Output(), "--lib", c.src)
}

// Compile runs the compiler and parses the manifest it writes. Python
// variants emit no C library; Compile returns a nil package for them.
func (c *Compiler) Compile(ctx context.Context) (*Package, error) {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, ffigen.NewIOError("mkdir", c.outputDir, err)
	}
	args := c.Args()
	c.log.Debug("compile", zap.String("exe", c.exe), zap.Strings("args", args))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.exe, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cerr := &ffigen.CompilationError{Command: c.exe, Source: c.src, ExitCode: -1, Err: err}
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			cerr.ExitCode = exit.ExitCode()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			c.log.Warn("compiler output", zap.String("stderr", msg))
		}
		return nil, cerr
	}
	if c.variant.IsPython() {
		return nil, nil
	}

	out := c.Output()
	m, err := manifest.ParseFile(out + ".json")
	if err != nil {
		return nil, err
	}
	return &Package{
		Manifest: m,
		CFile:    out + ".c",
		HFile:    out + ".h",
		Source:   c.src,
	}, nil
}

// Package is a compiled library.
type Package struct {
	Manifest *manifest.Manifest
	CFile    string
	HFile    string
	Source   string
}

// RequiredLibs returns the native libraries a binary using the package
// must link against.
func (p *Package) RequiredLibs() []string {
	return p.Manifest.Backend.RequiredLibs()
}
