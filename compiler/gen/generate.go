package gen

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Generate runs one generation pass of m through backend b and writes the
// result to path.
//
// The phases run in a fixed order and the first failure aborts the run:
//
//  1. Bindings, once.
//  2. Declare, for every type in name order, if b implements Declarer.
//  3. ArrayType or OpaqueType, for every type in name order.
//  4. Entry, for every entry point in name order.
//  5. The primary artifact, and the secondary one if b implements
//     SecondaryArtifact, are rendered and written.
//  6. Format, if enabled. Formatter failures are logged and dropped.
//
// No file is created unless phases 1 to 4 and rendering succeed. A file
// that fails half-way through writing is left in place.
func Generate(ctx context.Context, m *manifest.Manifest, b Backend, path string, cfg *Config) error {
	if cfg == nil {
		cfg = MustNewConfig()
	}
	log := Logger().With(zap.String("backend", b.Name()), zap.String("output", path))

	log.Debug("bindings")
	if err := b.Bindings(m); err != nil {
		return NewGenerationError(b.Name(), "bindings", "", err)
	}
	types := m.TypeNames()
	if d, ok := b.(Declarer); ok {
		for _, name := range types {
			if err := d.Declare(name, m.Types[name]); err != nil {
				return NewGenerationError(b.Name(), "declare", name, err)
			}
		}
	}
	for _, name := range types {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := m.Types[name]
		log.Debug("type", zap.String("name", name), zap.String("kind", string(t.Kind)))
		switch t.Kind {
		case manifest.KindArray:
			if err := b.ArrayType(name, t.Array); err != nil {
				return NewGenerationError(b.Name(), "array", name, err)
			}
		case manifest.KindOpaque:
			if err := b.OpaqueType(name, t.Opaque); err != nil {
				return NewGenerationError(b.Name(), "opaque", name, err)
			}
		}
	}
	for _, name := range m.EntryNames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug("entry", zap.String("name", name))
		if err := b.Entry(name, m.EntryPoints[name]); err != nil {
			return NewGenerationError(b.Name(), "entry", name, err)
		}
	}

	artifacts := []artifact{{path: path, render: b.Render}}
	if s, ok := b.(SecondaryArtifact); ok {
		artifacts = append(artifacts, artifact{path: s.SecondaryPath(path), render: s.RenderSecondary})
	}
	for i := range artifacts {
		if err := artifacts[i].prepare(); err != nil {
			return NewGenerationError(b.Name(), "render", artifacts[i].path, err)
		}
	}
	for i := range artifacts {
		a := &artifacts[i]
		if err := writeFile(a.path, a.buf.Bytes()); err != nil {
			return err
		}
		log.Debug("wrote", zap.String("file", a.path), zap.Int("bytes", a.buf.Len()))
	}

	if cfg.Format {
		if err := b.Format(path); err != nil {
			log.Warn("format failed", zap.Error(err))
		}
	}
	return nil
}

// artifact is one output file rendered into memory before writing.
type artifact struct {
	path   string
	render func(io.Writer) error
	buf    bytes.Buffer
}

func (a *artifact) prepare() error {
	return a.render(&a.buf)
}

// writeFile creates (or truncates) path and writes data to it. The file is
// closed on every path.
func writeFile(path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ffigen.NewIOError("mkdir", dir, err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return ffigen.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = ffigen.NewIOError("close", path, cerr)
		}
	}()
	if _, err := out.Write(data); err != nil {
		return ffigen.NewIOError("write", path, err)
	}
	return nil
}
