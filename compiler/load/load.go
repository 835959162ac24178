// Package load turns a command line input into a manifest, compiling it
// first when the input is a source file.
package load

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/ffigen/compiler/futhark"
	"github.com/syssam/ffigen/compiler/manifest"
)

// SourceExt is the extension of compiler source files.
const SourceExt = ".fut"

// Config describes how an input is loaded.
type Config struct {
	// Variant is the compiler variant used for source inputs.
	Variant manifest.Variant
	// Compiler is the compiler executable. Empty means futhark.DefaultExecutable.
	Compiler string
	// ExtraArgs are passed to the compiler.
	ExtraArgs []string
	// OutputDir receives the compiled library. Empty means next to the source.
	OutputDir string
	// Logger receives compiler diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Input is a loaded manifest and, for source inputs, the compiled package
// it came from.
type Input struct {
	Path     string
	Manifest *manifest.Manifest
	Package  *futhark.Package
}

// Load reads the input at path. A ".fut" source is compiled with the
// configured variant; a ".json" manifest is parsed directly.
func (c *Config) Load(ctx context.Context, path string) (*Input, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case SourceExt:
		return c.compile(ctx, path)
	case ".json":
		m, err := manifest.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return &Input{Path: path, Manifest: m}, nil
	default:
		return nil, fmt.Errorf("load: unsupported input %s: want a %s source or a .json manifest", path, SourceExt)
	}
}

func (c *Config) compile(ctx context.Context, path string) (*Input, error) {
	variant := c.Variant
	if variant == "" {
		variant = manifest.VariantC
	}
	if variant.IsPython() {
		return nil, fmt.Errorf("load: %s variant produces no C library to bind", variant)
	}
	pkg, err := futhark.NewCompiler(variant, path,
		futhark.WithExecutable(c.Compiler),
		futhark.WithExtraArgs(c.ExtraArgs...),
		futhark.WithOutputDir(c.OutputDir),
		futhark.WithLogger(c.Logger),
	).Compile(ctx)
	if err != nil {
		return nil, err
	}
	return &Input{Path: path, Manifest: pkg.Manifest, Package: pkg}, nil
}
