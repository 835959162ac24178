// Package ocaml generates an OCaml module binding a compiled library with
// ctypes, plus its interface file.
//
// Arrays cross the boundary as one-dimensional Bigarrays. Wrappers are
// released by free or by a Gc.finalise fallback; foreign status codes are
// raised as Error (Code n).
package ocaml

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"unicode"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Name is the backend name used in errors and logs.
const Name = "ocaml"

// Scalars maps manifest scalars to ctypes values and OCaml types. f16 has
// no ctypes representation.
var Scalars = map[manifest.ElemType]gen.Scalar{
	manifest.I8:   {Foreign: "int8_t", Wrapper: "int"},
	manifest.I16:  {Foreign: "int16_t", Wrapper: "int"},
	manifest.I32:  {Foreign: "int32_t", Wrapper: "int32"},
	manifest.I64:  {Foreign: "int64_t", Wrapper: "int64"},
	manifest.U8:   {Foreign: "uint8_t", Wrapper: "Unsigned.uint8"},
	manifest.U16:  {Foreign: "uint16_t", Wrapper: "Unsigned.uint16"},
	manifest.U32:  {Foreign: "uint32_t", Wrapper: "Unsigned.uint32"},
	manifest.U64:  {Foreign: "uint64_t", Wrapper: "Unsigned.uint64"},
	manifest.F32:  {Foreign: "float", Wrapper: "float"},
	manifest.F64:  {Foreign: "double", Wrapper: "float"},
	manifest.Bool: {Foreign: "bool", Wrapper: "bool"},
}

// keywords are OCaml keywords and identifiers used by generated bodies.
var keywords = gen.Names(
	"and", "as", "assert", "begin", "class", "constraint", "do", "done",
	"downto", "else", "end", "exception", "external", "false", "for", "fun",
	"function", "functor", "if", "in", "include", "inherit", "initializer",
	"lazy", "let", "match", "method", "module", "mutable", "new", "nonrec",
	"object", "of", "open", "or", "private", "rec", "sig", "struct", "then",
	"to", "true", "try", "type", "val", "virtual", "when", "while", "with",
	"ctx", "t", "out", "check",
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("ocaml").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl"),
)

// section holds the implementation and interface text of one type module.
type section struct {
	ml, mli bytes.Buffer
	deps    []string
}

// Backend emits an OCaml implementation and interface. Type modules are
// buffered per type and written in dependency order, since a module can
// only refer to modules defined before it.
type Backend struct {
	reg      *gen.Registry
	header   string
	prelude  bytes.Buffer
	mliHead  bytes.Buffer
	foreign  []string
	context  bytes.Buffer
	sections map[string]*section
	entries  bytes.Buffer
	entryMLI bytes.Buffer
}

// New returns an OCaml backend.
func New(cfg *gen.Config) *Backend {
	if cfg == nil {
		cfg = gen.MustNewConfig()
	}
	reg := gen.NewRegistry(Name)
	reg.RegisterScalars(Scalars)
	return &Backend{
		reg:      reg,
		header:   cfg.Header,
		sections: make(map[string]*section),
	}
}

// Name implements gen.Backend.
func (b *Backend) Name() string { return Name }

// Registry returns the type registry of the run.
func (b *Backend) Registry() *gen.Registry { return b.reg }

// Declare implements gen.Declarer. Every handle is an untyped pointer on
// the foreign side; the registry maps a type to its wrapper module.
func (b *Backend) Declare(name string, t *manifest.Type) error {
	foreign := manifest.StructName(t.CType())
	b.reg.Register(name, foreign)
	b.reg.RegisterWrapper(foreign, moduleName(t))
	return nil
}

// moduleName returns the wrapper module of a type, e.g. "Array_i64_1d" or
// "Point".
func moduleName(t *manifest.Type) string {
	if t.Kind == manifest.KindArray {
		return fmt.Sprintf("Array_%s_%dd", t.Array.ElemType, t.Array.Rank)
	}
	tag := gen.Ident(gen.OpaqueTag(t.Opaque))
	r := []rune(tag)
	if len(r) == 0 || !unicode.IsLetter(r[0]) {
		return "T_" + tag
	}
	r[0] = unicode.ToUpper(r[0])
	name := string(r)
	for {
		if _, ok := fixedModules[name]; !ok {
			return name
		}
		name += "_opaque"
	}
}

// fixedModules are the modules every implementation declares.
var fixedModules = gen.Names("Context", "Bindings")

// foreignFn declares one foreign function in the Bindings module.
func (b *Backend) foreignFn(name, ret string, args ...string) {
	if len(args) == 0 {
		args = []string{"void"}
	}
	b.foreign = append(b.foreign, fmt.Sprintf("  let %s = foreign %q (%s @-> returning %s)",
		name, name, strings.Join(args, " @-> "), ret))
}

// Bindings implements gen.Backend.
func (b *Backend) Bindings(m *manifest.Manifest) error {
	if m.Backend.IsPython() {
		return fmt.Errorf("%s variant produces no C library to bind", m.Backend)
	}
	const handle = "(ptr void)"
	b.foreignFn("futhark_context_config_new", handle)
	b.foreignFn("futhark_context_config_free", "void", handle)
	for _, knob := range []string{"debugging", "profiling", "logging"} {
		b.foreignFn("futhark_context_config_set_"+knob, "void", handle, "int")
	}
	b.foreignFn("futhark_context_config_set_cache_file", "void", handle, "string")
	if m.Backend.IsMulticore() {
		b.foreignFn("futhark_context_config_set_num_threads", "void", handle, "int")
	}
	if m.Backend.IsGPU() {
		b.foreignFn("futhark_context_config_set_device", "void", handle, "string")
	}
	b.foreignFn("futhark_context_new", handle, handle)
	b.foreignFn("futhark_context_free", "void", handle)
	b.foreignFn("futhark_context_sync", "int", handle)
	b.foreignFn("futhark_context_clear_caches", "int", handle)
	b.foreignFn("futhark_context_pause_profiling", "void", handle)
	b.foreignFn("futhark_context_unpause_profiling", "void", handle)
	b.foreignFn("futhark_context_get_error", "(ptr_opt char)", handle)
	b.foreignFn("futhark_context_report", "(ptr_opt char)", handle)
	b.foreignFn("free", "void", handle)

	knobs := struct{ Multicore, GPU bool }{m.Backend.IsMulticore(), m.Backend.IsGPU()}
	if err := templates.ExecuteTemplate(&b.prelude, "prelude", knobs); err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(&b.mliHead, "prelude_mli", knobs); err != nil {
		return err
	}
	return templates.ExecuteTemplate(&b.context, "context", knobs)
}

// ArrayType implements gen.Backend.
func (b *Backend) ArrayType(name string, t *manifest.ArrayType) error {
	elem, ok := elements[t.ElemType]
	if !ok {
		return ffigen.NewUnsupportedTypeError(Name, t.ElemType.String(), "array "+name)
	}
	typ := &manifest.Type{Kind: manifest.KindArray, Array: t}
	if err := b.Declare(name, typ); err != nil {
		return err
	}
	d := arrayData{Name: name, Module: moduleName(typ), Rank: t.Rank, Elem: elem, Ops: t.Ops}

	const handle = "(ptr void)"
	dims := slices.Repeat([]string{"int64_t"}, t.Rank)
	b.foreignFn(t.Ops.New, handle, append([]string{handle, "(ptr " + elem.Ptr + ")"}, dims...)...)
	b.foreignFn(t.Ops.Free, "int", handle, handle)
	b.foreignFn(t.Ops.Values, "int", handle, handle, "(ptr "+elem.Ptr+")")
	b.foreignFn(t.Ops.Shape, "(ptr int64_t)", handle, handle)

	s := &section{}
	b.sections[name] = s
	if err := templates.ExecuteTemplate(&s.ml, "array", d); err != nil {
		return err
	}
	return templates.ExecuteTemplate(&s.mli, "array_mli", d)
}

// OpaqueType implements gen.Backend.
func (b *Backend) OpaqueType(name string, t *manifest.OpaqueType) error {
	typ := &manifest.Type{Kind: manifest.KindOpaque, Opaque: t}
	if err := b.Declare(name, typ); err != nil {
		return err
	}
	const handle = "(ptr void)"
	d := opaqueData{Name: name, Module: moduleName(typ), Ops: t.Ops}
	b.foreignFn(t.Ops.Free, "int", handle, handle)

	s := &section{}
	if r := t.Record; r != nil {
		d.Record = &recordData{New: r.New}
		args := []string{handle, "(ptr (ptr void))"}
		for _, fd := range r.Fields {
			v, err := b.value(fd.Type, fd.Name, fmt.Sprintf("field %s of %s", fd.Name, name))
			if err != nil {
				return err
			}
			if !v.Scalar {
				s.deps = append(s.deps, fd.Type)
			}
			d.Record.Fields = append(d.Record.Fields, field{
				value:   v,
				Method:  "get_" + gen.Ident(fd.Name),
				Project: fd.Project,
			})
			args = append(args, v.In())
			b.foreignFn(fd.Project, "int", handle, v.Slot(), handle)
		}
		b.foreignFn(r.New, "int", args...)
	}

	b.sections[name] = s
	if err := templates.ExecuteTemplate(&s.ml, "opaque", d); err != nil {
		return err
	}
	return templates.ExecuteTemplate(&s.mli, "opaque_mli", d)
}

// Entry implements gen.Backend.
func (b *Backend) Entry(name string, e *manifest.Entry) error {
	d := entryData{Name: name, Ident: gen.SafeIdent(lowerIdent(name), keywords), CFun: e.CFun}
	reserved := gen.Names()
	for k := range keywords {
		reserved[k] = struct{}{}
	}
	const handle = "(ptr void)"
	args := []string{handle}
	for i, out := range e.Outputs {
		v, err := b.value(out.Type, fmt.Sprintf("out%d", i), fmt.Sprintf("output %d of %s", i, name))
		if err != nil {
			return err
		}
		reserved[fmt.Sprintf("out%d", i)] = struct{}{}
		reserved[fmt.Sprintf("r%d", i)] = struct{}{}
		d.Outputs = append(d.Outputs, v)
		args = append(args, v.Slot())
	}
	for _, in := range e.Inputs {
		v, err := b.value(in.Type, in.Name, fmt.Sprintf("input %s of %s", in.Name, name))
		if err != nil {
			return err
		}
		v.Ident = gen.SafeIdent(lowerIdent(in.Name), reserved)
		v.Unique = in.Unique
		d.Inputs = append(d.Inputs, v)
		args = append(args, v.In())
	}
	b.foreignFn(e.CFun, "int", args...)

	if err := templates.ExecuteTemplate(&b.entries, "entry", d); err != nil {
		return err
	}
	return templates.ExecuteTemplate(&b.entryMLI, "entry_mli", d)
}

// lowerIdent returns an identifier valid as an OCaml value name.
func lowerIdent(s string) string {
	id := gen.Ident(s)
	r := []rune(id)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		r[0] = unicode.ToLower(r[0])
	}
	return string(r)
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
		Ident:  gen.SafeIdent(lowerIdent(name), keywords),
		Scalar: manifest.IsScalar(typ),
		CType:  b.reg.Resolve(typ),
		OCaml:  wrapper,
	}, nil
}

// order returns the type names with every type after the types its record
// fields refer to. Ties keep name order.
func (b *Backend) order() []string {
	names := make([]string, 0, len(b.sections))
	for n := range b.sections {
		names = append(names, n)
	}
	slices.Sort(names)
	var (
		out  = make([]string, 0, len(names))
		seen = make(map[string]bool, len(names))
		add  func(string)
	)
	add = func(n string) {
		s, ok := b.sections[n]
		if !ok || seen[n] {
			return
		}
		seen[n] = true
		for _, d := range s.deps {
			add(d)
		}
		out = append(out, n)
	}
	for _, n := range names {
		add(n)
	}
	return out
}

// Render implements gen.Backend.
func (b *Backend) Render(w io.Writer) error {
	var buf bytes.Buffer
	if b.header != "" {
		fmt.Fprintf(&buf, "(* %s *)\n\n", b.header)
	}
	buf.Write(b.prelude.Bytes())
	buf.WriteString("\nmodule Bindings = struct\n  open Foreign\n\n")
	for _, f := range b.foreign {
		buf.WriteString(f)
		buf.WriteByte('\n')
	}
	buf.WriteString("end\n")
	buf.Write(b.context.Bytes())
	for _, n := range b.order() {
		buf.Write(b.sections[n].ml.Bytes())
	}
	buf.WriteString("\nmodule Entry = struct\n")
	buf.Write(b.entries.Bytes())
	buf.WriteString("end\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// SecondaryPath implements gen.SecondaryArtifact.
func (b *Backend) SecondaryPath(primary string) string {
	return strings.TrimSuffix(primary, filepath.Ext(primary)) + ".mli"
}

// RenderSecondary implements gen.SecondaryArtifact.
func (b *Backend) RenderSecondary(w io.Writer) error {
	var buf bytes.Buffer
	if b.header != "" {
		fmt.Fprintf(&buf, "(* %s *)\n\n", b.header)
	}
	buf.Write(b.mliHead.Bytes())
	for _, n := range b.order() {
		buf.Write(b.sections[n].mli.Bytes())
	}
	buf.WriteString("\nmodule Entry : sig")
	buf.Write(b.entryMLI.Bytes())
	buf.WriteString("\nend\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// Format implements gen.Backend. It runs ocamlformat over both files.
func (b *Backend) Format(path string) error {
	cmd := exec.CommandContext(context.Background(), "ocamlformat",
		"--enable-outside-detected-project", "--inplace", path, b.SecondaryPath(path))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ocamlformat %s: %w: %s", path, err, out)
	}
	return nil
}
