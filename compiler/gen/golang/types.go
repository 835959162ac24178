package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// arrayInfo describes one array wrapper.
type arrayInfo struct {
	name    string // manifest name
	wrapper string // e.g. "ArrayI64D1"
	cStruct string // e.g. "struct_futhark_i64_1d"
	rank    int
	elem    gen.Scalar
	ops     manifest.ArrayOps
}

// opaqueInfo describes one opaque wrapper.
type opaqueInfo struct {
	name    string
	wrapper string
	cStruct string
	ops     manifest.OpaqueOps
}

// value is a parameter, record field or result crossing the boundary.
type value struct {
	name   string // manifest name
	ident  string // Go identifier
	scalar bool
	cType  string // "int64_t" or "struct_futhark_i64_1d"
	goType string // "int64" or "ArrayI64D1"
	unique bool
}

func (b *Backend) array(name string, t *manifest.ArrayType) arrayInfo {
	return arrayInfo{
		name:    name,
		wrapper: gen.ArrayWrapperName(t),
		cStruct: "struct_" + t.StructName(),
		rank:    t.Rank,
		elem:    Scalars[t.ElemType],
		ops:     t.Ops,
	}
}

func (b *Backend) opaque(name string, t *manifest.OpaqueType) opaqueInfo {
	return opaqueInfo{
		name:    name,
		wrapper: gen.OpaqueWrapperName(t, topLevel),
		cStruct: "struct_" + t.StructName(),
		ops:     t.Ops,
	}
}

// value resolves a manifest type through the registry. usage describes
// where the type appears, for error messages.
func (b *Backend) value(typ, name, usage string) (value, error) {
	if err := b.reg.Check(typ, usage); err != nil {
		return value{}, err
	}
	wrapper, err := b.reg.Wrapper(typ)
	if err != nil {
		return value{}, err
	}
	return value{
		name:   name,
		ident:  gen.Camel(name),
		scalar: manifest.IsScalar(typ),
		cType:  b.reg.Resolve(typ),
		goType: wrapper,
	}, nil
}

// goType is the Go type seen by callers.
func (v value) goTypeCode() *jen.Statement {
	if v.scalar {
		return jen.Id(v.goType)
	}
	return jen.Op("*").Id(v.goType)
}

// cVar is the type of a C output slot.
func (v value) cVar() *jen.Statement {
	if v.scalar {
		return jen.Qual("C", v.cType)
	}
	return jen.Op("*").Qual("C", v.cType)
}

func (v value) zero() *jen.Statement {
	switch {
	case !v.scalar:
		return jen.Nil()
	case v.goType == "bool":
		return jen.False()
	default:
		return jen.Lit(0)
	}
}

// arg converts the Go value to its C argument.
func (v value) arg() *jen.Statement {
	if v.scalar {
		return jen.Qual("C", v.cType).Call(jen.Id(v.ident))
	}
	return jen.Id(v.ident).Dot("ptr")
}

// wrap converts a raw C result to its Go value.
func (v value) wrap(ctx, raw jen.Code) *jen.Statement {
	if v.scalar {
		return jen.Id(v.goType).Call(raw)
	}
	return jen.Id(fromPtr(v.goType)).Call(ctx, raw)
}

func fromPtr(wrapper string) string {
	return "new" + wrapper + "FromPtr"
}

// nilCheck returns ErrNullPointer when a reference argument is nil or
// already freed.
func nilCheck(v value, results ...jen.Code) jen.Code {
	return jen.If(jen.Id(v.ident).Op("==").Nil().Op("||").Id(v.ident).Dot("ptr").Op("==").Nil()).Block(
		jen.Return(append(results, jen.Id("ErrNullPointer"))...),
	)
}

// statusCheck calls fn and returns the status error, if any.
func statusCheck(call jen.Code, results ...jen.Code) jen.Code {
	return jen.If(
		jen.Err().Op(":=").Id("statusError").Call(call),
		jen.Err().Op("!=").Nil(),
	).Block(
		jen.Return(append(results, jen.Err())...),
	)
}

// cPtr converts a Go slice to a pointer to its first element, or nil.
func cPtr(slice string, elem string) []jen.Code {
	return []jen.Code{
		jen.Var().Id("p").Op("*").Qual("C", elem),
		jen.If(jen.Len(jen.Id(slice)).Op(">").Lit(0)).Block(
			jen.Id("p").Op("=").Parens(jen.Op("*").Qual("C", elem)).Call(
				jen.Qual("unsafe", "Pointer").Call(jen.Op("&").Id(slice).Index(jen.Lit(0))),
			),
		),
	}
}
