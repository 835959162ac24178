// Package compiler selects a generation backend for an output path and
// runs it.
//
// The backend follows from the output file extension:
//
//	.go  Go package using cgo
//	.rs  Rust module using extern "C"
//	.ml  OCaml module using ctypes, plus its .mli interface
package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/gen/golang"
	"github.com/syssam/ffigen/compiler/gen/ocaml"
	"github.com/syssam/ffigen/compiler/gen/rust"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Backends lists the backend names accepted by BackendNamed.
var Backends = []string{golang.Name, rust.Name, ocaml.Name}

// BackendFor returns a fresh backend for the extension of path.
func BackendFor(path string, cfg *gen.Config) (gen.Backend, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".go":
		return golang.New(path, cfg), nil
	case ".rs":
		return rust.New(cfg), nil
	case ".ml":
		return ocaml.New(cfg), nil
	default:
		return nil, fmt.Errorf("compiler: no backend for %q output %s", ext, path)
	}
}

// BackendNamed returns a fresh backend by name, or by output extension if
// name is empty.
func BackendNamed(name, path string, cfg *gen.Config) (gen.Backend, error) {
	switch name {
	case "":
		return BackendFor(path, cfg)
	case golang.Name, "golang":
		return golang.New(path, cfg), nil
	case rust.Name:
		return rust.New(cfg), nil
	case ocaml.Name:
		return ocaml.New(cfg), nil
	default:
		return nil, fmt.Errorf("compiler: unknown backend %q (want one of %s)", name, strings.Join(Backends, ", "))
	}
}

// GenerateFile generates the wrapper of m at path with the backend matching
// its extension.
func GenerateFile(ctx context.Context, m *manifest.Manifest, path string, opts ...gen.Option) error {
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return err
	}
	b, err := BackendFor(path, cfg)
	if err != nil {
		return err
	}
	return gen.Generate(ctx, m, b, path, cfg)
}

// GenerateAll generates one wrapper per path, in parallel. Each run owns
// its backend and registry. The first failure cancels runs not yet
// started and is returned.
func GenerateAll(ctx context.Context, m *manifest.Manifest, paths []string, opts ...gen.Option) error {
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return err
	}
	// Resolve every backend up front, so that an unknown extension fails
	// before any file is written.
	backends := make([]gen.Backend, len(paths))
	for i, p := range paths {
		if backends[i], err = BackendFor(p, cfg); err != nil {
			return err
		}
	}
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(cfg.Workers)
	for i, p := range paths {
		b := backends[i]
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return gen.Generate(ctx, m, b, p, cfg)
		})
	}
	return errg.Wait()
}
