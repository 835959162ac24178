package rust

import (
	"fmt"
	"strings"

	"github.com/syssam/ffigen/compiler/manifest"
)

// arrayData is the template data of one array type.
type arrayData struct {
	Name    string
	Struct  string // foreign struct, e.g. "futhark_i64_1d"
	Wrapper string // e.g. "ArrayI64D1"
	Elem    string
	Rank    int
	Ops     manifest.ArrayOps
}

// DimArgs are the call arguments passing each dimension.
func (a arrayData) DimArgs() string {
	args := make([]string, a.Rank)
	for i := range args {
		args[i] = fmt.Sprintf("dims[%d]", i)
	}
	return strings.Join(args, ", ")
}

// DimParams are the extern parameters receiving each dimension.
func (a arrayData) DimParams() string {
	params := make([]string, a.Rank)
	for i := range params {
		params[i] = fmt.Sprintf("dim%d: i64", i)
	}
	return strings.Join(params, ", ")
}

// opaqueData is the template data of one opaque type.
type opaqueData struct {
	Name    string
	Struct  string
	Wrapper string
	Ops     manifest.OpaqueOps
}

// recordData is the template data of a record constructor and its
// projections.
type recordData struct {
	opaqueData
	New    string
	Fields []field
}

type field struct {
	value
	Method  string // projection method name
	Project string // foreign projection
}

// value is a parameter, field or result crossing the boundary.
type value struct {
	Ident   string
	Scalar  bool
	Type    string // Rust scalar type or foreign struct name
	Wrapper string // wrapper type for references
	Unique  bool
}

// Param is the Rust parameter declaration, borrowing references for the
// given lifetime ("" elides it).
func (v value) Param(lifetime string) string {
	if v.Scalar {
		return v.Ident + ": " + v.Type
	}
	if lifetime == "" {
		return v.Ident + ": &" + v.Wrapper
	}
	return fmt.Sprintf("%s: &%s<%s>", v.Ident, v.Wrapper, lifetime)
}

// Arg is the value passed to the foreign function.
func (v value) Arg() string {
	if v.Scalar {
		return v.Ident
	}
	return v.Ident + ".ptr"
}

// Extern is the foreign parameter type of an input.
func (v value) Extern() string {
	if v.Scalar {
		return v.Type
	}
	return "*const " + v.Type
}

// Slot is the foreign parameter type of an output slot.
func (v value) Slot() string {
	if v.Scalar {
		return "*mut " + v.Type
	}
	return "*mut *mut " + v.Type
}

// Init is the zero value of an output slot.
func (v value) Init() string {
	if v.Scalar {
		return v.Type + "::default()"
	}
	return "std::ptr::null_mut()"
}

// Ret is the Rust result type for the given lifetime.
func (v value) Ret(lifetime string) string {
	if v.Scalar {
		return v.Type
	}
	return fmt.Sprintf("%s<%s>", v.Wrapper, lifetime)
}

// Wrap converts the raw slot raw to its Rust value.
func (v value) Wrap(ctx, raw string) string {
	if v.Scalar {
		return raw
	}
	return fmt.Sprintf("%s::from_ptr(%s, %s)", v.Wrapper, ctx, raw)
}

// entryData is the template data of one entry point.
type entryData struct {
	Name    string
	Method  string
	CFun    string
	Inputs  []value
	Outputs []value
}

// Return is the Rust result type: unit, one value or a tuple.
func (e entryData) Return() string {
	rets := make([]string, len(e.Outputs))
	for i, o := range e.Outputs {
		rets[i] = o.Ret("'_")
	}
	return tuple(rets)
}

// Result wraps every output slot into the returned expression.
func (e entryData) Result() string {
	rets := make([]string, len(e.Outputs))
	for i, o := range e.Outputs {
		rets[i] = o.Wrap("self", o.Ident)
	}
	return tuple(rets)
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
