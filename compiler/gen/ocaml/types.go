package ocaml

import (
	"fmt"
	"strings"

	"github.com/syssam/ffigen/compiler/manifest"
)

// element describes how an array element crosses the boundary as a
// Bigarray.
type element struct {
	OCaml string // element type seen by callers
	Elt   string // Bigarray element witness type
	Kind  string // Bigarray kind value
	Ptr   string // ctypes type of the data pointer
}

// elements lists the Bigarray representation of array elements. Bigarray
// has no kind for bool or f16.
var elements = map[manifest.ElemType]element{
	manifest.I8:  {"int", "Bigarray.int8_signed_elt", "Bigarray.int8_signed", "int8_t"},
	manifest.U8:  {"int", "Bigarray.int8_unsigned_elt", "Bigarray.int8_unsigned", "int8_t"},
	manifest.I16: {"int", "Bigarray.int16_signed_elt", "Bigarray.int16_signed", "int16_t"},
	manifest.U16: {"int", "Bigarray.int16_unsigned_elt", "Bigarray.int16_unsigned", "int16_t"},
	manifest.I32: {"int32", "Bigarray.int32_elt", "Bigarray.int32", "int32_t"},
	manifest.U32: {"int32", "Bigarray.int32_elt", "Bigarray.int32", "int32_t"},
	manifest.I64: {"int64", "Bigarray.int64_elt", "Bigarray.int64", "int64_t"},
	manifest.U64: {"int64", "Bigarray.int64_elt", "Bigarray.int64", "int64_t"},
	manifest.F32: {"float", "Bigarray.float32_elt", "Bigarray.float32", "float"},
	manifest.F64: {"float", "Bigarray.float64_elt", "Bigarray.float64", "double"},
}

// zeros are initial values of scalar output slots, by ctypes type.
var zeros = map[string]string{
	"int8_t":   "0",
	"int16_t":  "0",
	"int32_t":  "0l",
	"int64_t":  "0L",
	"uint8_t":  "Unsigned.UInt8.zero",
	"uint16_t": "Unsigned.UInt16.zero",
	"uint32_t": "Unsigned.UInt32.zero",
	"uint64_t": "Unsigned.UInt64.zero",
	"float":    "0.0",
	"double":   "0.0",
	"bool":     "false",
}

// arrayData is the template data of one array module.
type arrayData struct {
	Name   string
	Module string
	Rank   int
	Elem   element
	Ops    manifest.ArrayOps
}

// BigarrayType is the OCaml type of a one-dimensional buffer.
func (a arrayData) BigarrayType() string {
	return fmt.Sprintf("(%s, %s, Bigarray.c_layout) Bigarray.Array1.t", a.Elem.OCaml, a.Elem.Elt)
}

// DimArgs passes every dimension of dims as int64.
func (a arrayData) DimArgs() string {
	args := make([]string, a.Rank)
	for i := range args {
		args[i] = fmt.Sprintf("(Int64.of_int dims.(%d))", i)
	}
	return strings.Join(args, " ")
}

// opaqueData is the template data of one opaque module.
type opaqueData struct {
	Name   string
	Module string
	Ops    manifest.OpaqueOps
	Record *recordData
}

type recordData struct {
	New    string
	Fields []field
}

// Params are the constructor parameters.
func (r recordData) Params() string {
	ps := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		ps[i] = f.Ident
	}
	return strings.Join(ps, " ")
}

// Args are the unwrapped constructor arguments.
func (r recordData) Args() string {
	as := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		as[i] = f.Arg()
	}
	return strings.Join(as, " ")
}

// Signature is the constructor type in the interface.
func (r recordData) Signature() string {
	ts := []string{"Context.t"}
	for _, f := range r.Fields {
		ts = append(ts, f.Type())
	}
	return strings.Join(append(ts, "t"), " -> ")
}

type field struct {
	value
	Method  string
	Project string
}

// value is a parameter, field or result crossing the boundary.
type value struct {
	Ident  string
	Scalar bool
	CType  string // ctypes type of a scalar
	OCaml  string // OCaml scalar type or wrapper module
	Unique bool
}

// Type is the OCaml type seen by callers.
func (v value) Type() string {
	if v.Scalar {
		return v.OCaml
	}
	return v.OCaml + ".t"
}

// Arg is the value passed to the foreign function.
func (v value) Arg() string {
	if v.Scalar {
		return v.Ident
	}
	return fmt.Sprintf("%s.%s.ptr", v.Ident, v.OCaml)
}

// In is the ctypes type of an input.
func (v value) In() string {
	if v.Scalar {
		return v.CType
	}
	return "(ptr void)"
}

// Slot is the ctypes type of an output slot.
func (v value) Slot() string {
	if v.Scalar {
		return "(ptr " + v.CType + ")"
	}
	return "(ptr (ptr void))"
}

// Alloc allocates an output slot.
func (v value) Alloc() string {
	if v.Scalar {
		return fmt.Sprintf("allocate %s %s", v.CType, zeros[v.CType])
	}
	return "allocate (ptr void) null"
}

// Read takes the result out of slot.
func (v value) Read(ctx, slot string) string {
	if v.Scalar {
		return "!@" + slot
	}
	return fmt.Sprintf("%s.of_ptr %s !@%s", v.OCaml, ctx, slot)
}

// Live raises NullPtr for a freed reference argument.
func (v value) Live() string {
	return fmt.Sprintf("if %s.%s.freed then raise (Error NullPtr);", v.Ident, v.OCaml)
}

// entryData is the template data of one entry function.
type entryData struct {
	Name    string
	Ident   string
	CFun    string
	Inputs  []value
	Outputs []value
}

// Params are the function parameters after the context.
func (e entryData) Params() string {
	if len(e.Inputs) == 0 {
		return "()"
	}
	ps := make([]string, len(e.Inputs))
	for i, in := range e.Inputs {
		ps[i] = in.Ident
	}
	return strings.Join(ps, " ")
}

// Args are the output slots followed by the unwrapped inputs.
func (e entryData) Args() string {
	as := make([]string, 0, len(e.Outputs)+len(e.Inputs))
	for i := range e.Outputs {
		as = append(as, fmt.Sprintf("out%d", i))
	}
	for _, in := range e.Inputs {
		as = append(as, in.Arg())
	}
	return strings.Join(as, " ")
}

// Result is the returned expression.
func (e entryData) Result() string {
	rs := make([]string, len(e.Outputs))
	for i := range e.Outputs {
		rs[i] = fmt.Sprintf("r%d", i)
	}
	return tuple(rs)
}

// Signature is the function type in the interface.
func (e entryData) Signature() string {
	ts := []string{"Context.t"}
	if len(e.Inputs) == 0 {
		ts = append(ts, "unit")
	}
	for _, in := range e.Inputs {
		ts = append(ts, in.Type())
	}
	rs := make([]string, len(e.Outputs))
	for i, o := range e.Outputs {
		rs[i] = o.Type()
	}
	ret := "unit"
	if len(rs) > 0 {
		ret = strings.Join(rs, " * ")
	}
	return strings.Join(append(ts, ret), " -> ")
}

func tuple(items []string) string {
	switch len(items) {
	case 0:
		return "()"
	case 1:
		return items[0]
	default:
		return "(" + strings.Join(items, ", ") + ")"
	}
}
