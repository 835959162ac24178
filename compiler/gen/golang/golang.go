// Package golang generates Go wrappers over a compiled library using cgo.
//
// The generated file lives next to the library's C source and header, so
// that `go build` compiles and links them into the wrapper package:
//
//	{output dir}/
//	├── lib.c      # compiled library
//	├── lib.h      # its header, included through the cgo preamble
//	└── lib.go     # generated wrapper
//
// Every foreign handle is owned by exactly one wrapper value. Free releases
// it once; a finalizer releases handles the caller forgot about.
package golang

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Name is the backend name used in errors and logs.
const Name = "go"

// Scalars maps manifest scalars to C types and Go types. f16 has no Go
// representation.
var Scalars = map[manifest.ElemType]gen.Scalar{
	manifest.I8:   {Foreign: "int8_t", Wrapper: "int8"},
	manifest.I16:  {Foreign: "int16_t", Wrapper: "int16"},
	manifest.I32:  {Foreign: "int32_t", Wrapper: "int32"},
	manifest.I64:  {Foreign: "int64_t", Wrapper: "int64"},
	manifest.U8:   {Foreign: "uint8_t", Wrapper: "uint8"},
	manifest.U16:  {Foreign: "uint16_t", Wrapper: "uint16"},
	manifest.U32:  {Foreign: "uint32_t", Wrapper: "uint32"},
	manifest.U64:  {Foreign: "uint64_t", Wrapper: "uint64"},
	manifest.F32:  {Foreign: "float", Wrapper: "float32"},
	manifest.F64:  {Foreign: "double", Wrapper: "float64"},
	manifest.Bool: {Foreign: "bool", Wrapper: "bool"},
}

// topLevel are the package-level identifiers every wrapper file declares.
var topLevel = gen.Names(
	"Context", "Options", "StatusError", "ErrNullPointer", "ErrInvalidShape",
	"DefaultOptions", "NewContext", "NewContextWithOptions",
)

// Backend emits a single Go file built with jennifer.
type Backend struct {
	f      *jen.File
	reg    *gen.Registry
	m      *manifest.Manifest
	header string
}

// New returns a backend writing package cfg.PackageFor(output).
func New(output string, cfg *gen.Config) *Backend {
	if cfg == nil {
		cfg = gen.MustNewConfig()
	}
	f := jen.NewFile(cfg.PackageFor(output))
	if cfg.Header != "" {
		f.HeaderComment(cfg.Header)
	}
	reg := gen.NewRegistry(Name)
	reg.RegisterScalars(Scalars)
	return &Backend{
		f:      f,
		reg:    reg,
		header: cfg.HeaderFor(output),
	}
}

// Name implements gen.Backend.
func (b *Backend) Name() string { return Name }

// Registry returns the type registry of the run.
func (b *Backend) Registry() *gen.Registry { return b.reg }

// File returns the file being built.
func (b *Backend) File() *jen.File { return b.f }

// Declare implements gen.Declarer. It registers the C struct and wrapper
// name of every type so that record fields and entries can refer to types
// whose bodies have not been emitted yet.
func (b *Backend) Declare(name string, t *manifest.Type) error {
	var wrapper string
	switch t.Kind {
	case manifest.KindArray:
		wrapper = gen.ArrayWrapperName(t.Array)
	case manifest.KindOpaque:
		wrapper = gen.OpaqueWrapperName(t.Opaque, topLevel)
	}
	foreign := "struct_" + manifest.StructName(t.CType())
	b.reg.Register(name, foreign)
	b.reg.RegisterWrapper(foreign, wrapper)
	return nil
}

// Bindings implements gen.Backend.
func (b *Backend) Bindings(m *manifest.Manifest) error {
	if m.Backend.IsPython() {
		return fmt.Errorf("%s variant produces no C library to bind", m.Backend)
	}
	b.m = m
	b.f.CgoPreamble(b.preamble(m.Backend))
	genErrors(b.f)
	genOptions(b.f, m.Backend)
	genContext(b.f, m.Backend)
	return nil
}

func (b *Backend) preamble(v manifest.Variant) string {
	var lines []string
	if libs := v.RequiredLibs(); len(libs) > 0 {
		flags := make([]string, len(libs))
		for i, l := range libs {
			flags[i] = "-l" + l
		}
		lines = append(lines, "#cgo LDFLAGS: "+strings.Join(flags, " "))
	}
	lines = append(lines,
		"#include <stdlib.h>",
		"#include <stdint.h>",
		"#include <stdbool.h>",
		fmt.Sprintf("#include %q", b.header),
	)
	return strings.Join(lines, "\n")
}

// ArrayType implements gen.Backend.
func (b *Backend) ArrayType(name string, t *manifest.ArrayType) error {
	if err := b.reg.Check(t.ElemType.String(), "array "+name); err != nil {
		return err
	}
	if err := b.Declare(name, &manifest.Type{Kind: manifest.KindArray, Array: t}); err != nil {
		return err
	}
	genArray(b.f, b.array(name, t))
	return nil
}

// OpaqueType implements gen.Backend.
func (b *Backend) OpaqueType(name string, t *manifest.OpaqueType) error {
	if err := b.Declare(name, &manifest.Type{Kind: manifest.KindOpaque, Opaque: t}); err != nil {
		return err
	}
	o := b.opaque(name, t)
	genOpaque(b.f, o)
	if t.Record == nil {
		return nil
	}
	fields := make([]value, 0, len(t.Record.Fields))
	for _, fd := range t.Record.Fields {
		v, err := b.value(fd.Type, fd.Name, fmt.Sprintf("field %s of %s", fd.Name, name))
		if err != nil {
			return err
		}
		fields = append(fields, v)
	}
	genRecord(b.f, o, t.Record, fields)
	return nil
}

// Entry implements gen.Backend.
func (b *Backend) Entry(name string, e *manifest.Entry) error {
	ins := make([]value, 0, len(e.Inputs))
	for _, in := range e.Inputs {
		v, err := b.value(in.Type, in.Name, fmt.Sprintf("input %s of %s", in.Name, name))
		if err != nil {
			return err
		}
		v.unique = in.Unique
		ins = append(ins, v)
	}
	outs := make([]value, 0, len(e.Outputs))
	for i, out := range e.Outputs {
		v, err := b.value(out.Type, fmt.Sprintf("out%d", i), fmt.Sprintf("output %d of %s", i, name))
		if err != nil {
			return err
		}
		outs = append(outs, v)
	}
	genEntry(b.f, name, e, ins, outs)
	return nil
}

// Render implements gen.Backend.
func (b *Backend) Render(w io.Writer) error {
	return b.f.Render(w)
}

// Format implements gen.Backend. It runs goimports over the written file.
func (b *Backend) Format(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := imports.Process(path, src, nil)
	if err != nil {
		return fmt.Errorf("format %s: %w", path, err)
	}
	return os.WriteFile(path, out, 0o644)
}
