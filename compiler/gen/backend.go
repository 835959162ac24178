package gen

import (
	"io"

	"github.com/syssam/ffigen/compiler/manifest"
)

// Backend emits wrapper source for one target language.
//
// The driver calls the phase methods in a fixed order (see Generate). Each
// phase appends to an in-memory artifact owned by the backend; nothing is
// written to disk until Render is called.
//
// Architecture:
//
//	┌──────────────────────────────────────────────┐
//	│                  Generate                    │
//	│  (phase order, artifact writing, format)     │
//	└──────────────────────┬───────────────────────┘
//	                       │ drives
//	                       ▼
//	┌──────────────────────────────────────────────┐
//	│                   Backend                    │
//	│  (bindings, types, entries, render)          │
//	└──────────────────────┬───────────────────────┘
//	                       │ implemented by
//	         ┌─────────────┼─────────────┐
//	         ▼             ▼             ▼
//	  ┌────────────┐ ┌────────────┐ ┌────────────┐
//	  │ gen/golang │ │  gen/rust  │ │ gen/ocaml  │
//	  └────────────┘ └────────────┘ └────────────┘
type Backend interface {
	// Name returns the backend name (e.g., "go", "rust").
	Name() string
	// Bindings declares the context, options and error taxonomy.
	// It runs once, before any type or entry.
	Bindings(m *manifest.Manifest) error
	// ArrayType emits the wrapper of one array type.
	ArrayType(name string, t *manifest.ArrayType) error
	// OpaqueType emits the wrapper of one opaque type and, if present,
	// its record constructor and projections.
	OpaqueType(name string, t *manifest.OpaqueType) error
	// Entry emits the context method of one entry point.
	Entry(name string, e *manifest.Entry) error
	// Render writes the accumulated primary artifact.
	Render(w io.Writer) error
	// Format post-processes the written artifact at path. Failures are
	// reported but never abort generation.
	Format(path string) error
}

// Declarer is implemented by backends that need every type name
// registered before any type body is emitted. Record fields may refer to
// opaque types that sort after the record itself.
type Declarer interface {
	Declare(name string, t *manifest.Type) error
}

// SecondaryArtifact is implemented by backends that emit a second file
// next to the primary one (e.g., an OCaml interface).
type SecondaryArtifact interface {
	// SecondaryPath returns the path of the second file.
	SecondaryPath(primary string) string
	// RenderSecondary writes the accumulated secondary artifact.
	RenderSecondary(w io.Writer) error
}

// Base provides no-op Bindings and Format phases.
// Embed it to skip the optional phases.
type Base struct{}

// Bindings implements Backend.
func (Base) Bindings(*manifest.Manifest) error { return nil }

// Format implements Backend.
func (Base) Format(string) error { return nil }
