package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/syssam/ffigen"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the CUE source used to validate manifests.
func Schema() string {
	return schemaSource
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ffigen.NewIOError("read", path, err)
	}
	return parse(path, data)
}

// Parse parses and validates a manifest document.
//
// Validation runs in three steps: the document is unified with the CUE
// schema, decoded into the Go model, and finally every type reference in
// entry points and record fields is resolved against the declared types.
// All problems found in a step are reported together.
func Parse(data []byte) (*Manifest, error) {
	return parse("", data)
}

func parse(path string, data []byte) (*Manifest, error) {
	if err := validate(path, data); err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, withPath(path, ffigen.NewManifestError("", "decode", err))
	}
	if err := m.check(); err != nil {
		return nil, withPath(path, err)
	}
	return m, nil
}

// validate unifies the document with the #Manifest definition.
func validate(path string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("manifest: compiling schema: %w", err)
	}
	opts := []cue.BuildOption{}
	if path != "" {
		opts = append(opts, cue.Filename(path))
	}
	doc := ctx.CompileBytes(data, opts...)
	if err := doc.Err(); err != nil {
		return withPath(path, ffigen.NewManifestError("", "syntax", err))
	}
	v := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return withPath(path, schemaErrors(err))
	}
	return nil
}

// schemaErrors converts CUE validation errors into ManifestErrors keyed by
// the offending field path.
func schemaErrors(err error) error {
	var errs []error
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ffigen.NewManifestError(
			strings.Join(e.Path(), "."),
			fmt.Sprintf(format, args...),
			nil,
		))
	}
	if len(errs) == 0 {
		return ffigen.NewManifestError("", "", err)
	}
	return errors.Join(errs...)
}

// check verifies the decoded manifest is internally consistent.
func (m *Manifest) check() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, ffigen.NewManifestError(field, fmt.Sprintf(format, args...), nil))
	}
	if m.EntryPoints == nil {
		fail("entry_points", "field is required")
	}
	if m.Types == nil {
		fail("types", "field is required")
	}
	ref := func(field, name string) {
		if !IsScalar(name) {
			if _, ok := m.Types[name]; !ok {
				fail(field, "unknown type %q", name)
			}
		}
	}
	for _, name := range m.TypeNames() {
		t := m.Types[name]
		if t == nil {
			fail("types."+name, "null type")
			continue
		}
		if t.Array != nil && !t.Array.ElemType.Valid() {
			fail("types."+name+".elemtype", "unknown element type %q", t.Array.ElemType)
		}
		if t.Opaque != nil && t.Opaque.Record != nil {
			for i, f := range t.Opaque.Record.Fields {
				ref(fmt.Sprintf("types.%s.record.fields.%d.type", name, i), f.Type)
			}
		}
	}
	for _, name := range m.EntryNames() {
		e := m.EntryPoints[name]
		if e == nil {
			fail("entry_points."+name, "null entry point")
			continue
		}
		for i, in := range e.Inputs {
			ref(fmt.Sprintf("entry_points.%s.inputs.%d.type", name, i), in.Type)
		}
		for i, out := range e.Outputs {
			ref(fmt.Sprintf("entry_points.%s.outputs.%d.type", name, i), out.Type)
		}
	}
	return errors.Join(errs...)
}

// withPath records the source file on every ManifestError in err.
func withPath(path string, err error) error {
	if path == "" || err == nil {
		return err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			withPath(path, e)
		}
		return err
	}
	var me *ffigen.ManifestError
	if errors.As(err, &me) {
		me.Path = path
	}
	return err
}
