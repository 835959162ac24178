// Package rust generates a Rust module binding a compiled library through
// `extern "C"` declarations.
//
// Every wrapper borrows the Context it was created from and frees its
// handle in Drop. Foreign status codes surface as Error::Code.
package rust

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os/exec"
	"text/template"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Name is the backend name used in errors and logs.
const Name = "rust"

// Scalars maps manifest scalars to Rust primitive types. f16 has no
// stable Rust representation.
var Scalars = map[manifest.ElemType]gen.Scalar{
	manifest.I8:   {Foreign: "i8"},
	manifest.I16:  {Foreign: "i16"},
	manifest.I32:  {Foreign: "i32"},
	manifest.I64:  {Foreign: "i64"},
	manifest.U8:   {Foreign: "u8"},
	manifest.U16:  {Foreign: "u16"},
	manifest.U32:  {Foreign: "u32"},
	manifest.U64:  {Foreign: "u64"},
	manifest.F32:  {Foreign: "f32"},
	manifest.F64:  {Foreign: "f64"},
	manifest.Bool: {Foreign: "bool"},
}

// keywords are Rust keywords and identifiers used by generated bodies.
var keywords = gen.Names(
	"as", "break", "const", "continue", "crate", "else", "enum", "extern",
	"false", "fn", "for", "if", "impl", "in", "let", "loop", "match", "mod",
	"move", "mut", "pub", "ref", "return", "self", "Self", "static", "struct",
	"super", "trait", "true", "type", "unsafe", "use", "where", "while",
	"async", "await", "dyn", "abstract", "become", "box", "do", "final",
	"macro", "override", "priv", "typeof", "unsized", "virtual", "yield", "try",
	"ctx", "out", "result", "o", "status", "shape_matches", "take_string",
	"free",
)

// contextMethods are the methods of the generated Context.
var contextMethods = gen.Names(
	"new", "new_with_options", "sync", "auto_sync", "clear_caches",
	"pause_profiling", "unpause_profiling", "get_error", "report",
)

// topLevel are the types every wrapper file declares.
var topLevel = gen.Names("Context", "Error", "Options")

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("rust").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Backend emits a Rust module into an in-memory buffer.
type Backend struct {
	buf    bytes.Buffer
	reg    *gen.Registry
	header string
}

// New returns a Rust backend.
func New(cfg *gen.Config) *Backend {
	if cfg == nil {
		cfg = gen.MustNewConfig()
	}
	reg := gen.NewRegistry(Name)
	reg.RegisterScalars(Scalars)
	return &Backend{reg: reg, header: cfg.Header}
}

// Name implements gen.Backend.
func (b *Backend) Name() string { return Name }

// Registry returns the type registry of the run.
func (b *Backend) Registry() *gen.Registry { return b.reg }

// Declare implements gen.Declarer.
func (b *Backend) Declare(name string, t *manifest.Type) error {
	var wrapper string
	switch t.Kind {
	case manifest.KindArray:
		wrapper = gen.ArrayWrapperName(t.Array)
	case manifest.KindOpaque:
		wrapper = gen.OpaqueWrapperName(t.Opaque, topLevel)
	}
	foreign := manifest.StructName(t.CType())
	b.reg.Register(name, foreign)
	b.reg.RegisterWrapper(foreign, wrapper)
	return nil
}

// Bindings implements gen.Backend.
func (b *Backend) Bindings(m *manifest.Manifest) error {
	if m.Backend.IsPython() {
		return fmt.Errorf("%s variant produces no C library to bind", m.Backend)
	}
	if b.header != "" {
		fmt.Fprintf(&b.buf, "// %s\n\n", b.header)
	}
	return b.execute("context", struct{ Multicore, GPU bool }{
		Multicore: m.Backend.IsMulticore(),
		GPU:       m.Backend.IsGPU(),
	})
}

// ArrayType implements gen.Backend.
func (b *Backend) ArrayType(name string, t *manifest.ArrayType) error {
	if err := b.reg.Check(t.ElemType.String(), "array "+name); err != nil {
		return err
	}
	if err := b.Declare(name, &manifest.Type{Kind: manifest.KindArray, Array: t}); err != nil {
		return err
	}
	return b.execute("array", arrayData{
		Name:    name,
		Struct:  t.StructName(),
		Wrapper: gen.ArrayWrapperName(t),
		Elem:    b.reg.Resolve(t.ElemType.String()),
		Rank:    t.Rank,
		Ops:     t.Ops,
	})
}

// OpaqueType implements gen.Backend.
func (b *Backend) OpaqueType(name string, t *manifest.OpaqueType) error {
	if err := b.Declare(name, &manifest.Type{Kind: manifest.KindOpaque, Opaque: t}); err != nil {
		return err
	}
	o := opaqueData{
		Name:    name,
		Struct:  t.StructName(),
		Wrapper: gen.OpaqueWrapperName(t, topLevel),
		Ops:     t.Ops,
	}
	if err := b.execute("opaque", o); err != nil {
		return err
	}
	if t.Record == nil {
		return nil
	}
	r := recordData{opaqueData: o, New: t.Record.New}
	for _, fd := range t.Record.Fields {
		v, err := b.value(fd.Type, fd.Name, fmt.Sprintf("field %s of %s", fd.Name, name))
		if err != nil {
			return err
		}
		r.Fields = append(r.Fields, field{
			value:   v,
			Method:  "get_" + gen.Ident(fd.Name),
			Project: fd.Project,
		})
	}
	return b.execute("record", r)
}

// Entry implements gen.Backend.
func (b *Backend) Entry(name string, e *manifest.Entry) error {
	d := entryData{Name: name, Method: EntryMethod(name), CFun: e.CFun}
	for i, out := range e.Outputs {
		v, err := b.value(out.Type, fmt.Sprintf("out%d", i), fmt.Sprintf("output %d of %s", i, name))
		if err != nil {
			return err
		}
		v.Ident = fmt.Sprintf("out%d", i)
		d.Outputs = append(d.Outputs, v)
	}
	reserved := gen.Names()
	for k := range keywords {
		reserved[k] = struct{}{}
	}
	for _, o := range d.Outputs {
		reserved[o.Ident] = struct{}{}
	}
	for _, in := range e.Inputs {
		v, err := b.value(in.Type, in.Name, fmt.Sprintf("input %s of %s", in.Name, name))
		if err != nil {
			return err
		}
		v.Ident = gen.SafeIdent(in.Name, reserved)
		v.Unique = in.Unique
		d.Inputs = append(d.Inputs, v)
	}
	return b.execute("entry", d)
}

// EntryMethod returns the Context method name of an entry point.
func EntryMethod(name string) string {
	m := gen.Ident(name)
	if _, ok := contextMethods[m]; ok {
		return "entry_" + m
	}
	return m
}

func (b *Backend) value(typ, name, usage string) (value, error) {
	if err := b.reg.Check(typ, usage); err != nil {
		return value{}, err
	}
	wrapper, err := b.reg.Wrapper(typ)
	if err != nil {
		return value{}, err
	}
	return value{
		Ident:   gen.SafeIdent(name, keywords),
		Scalar:  manifest.IsScalar(typ),
		Type:    b.reg.Resolve(typ),
		Wrapper: wrapper,
	}, nil
}

func (b *Backend) execute(name string, data any) error {
	return templates.ExecuteTemplate(&b.buf, name, data)
}

// Render implements gen.Backend.
func (b *Backend) Render(w io.Writer) error {
	_, err := w.Write(b.buf.Bytes())
	return err
}

// Format implements gen.Backend. It runs rustfmt in place.
func (b *Backend) Format(path string) error {
	out, err := exec.CommandContext(context.Background(), "rustfmt", "--edition", "2021", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("rustfmt %s: %w: %s", path, err, out)
	}
	return nil
}
