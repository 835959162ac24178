package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// recordReserved are identifiers used by the generated record constructor.
var recordReserved = gen.Names("ctx", "out", "err", "o")

// genOpaque emits the wrapper of an opaque type. Opaque values are only
// produced by entry points, record constructors and projections.
func genOpaque(f *jen.File, o opaqueInfo) {
	f.Commentf("%s wraps the opaque type %s.", o.wrapper, o.name)
	f.Type().Id(o.wrapper).Struct(
		jen.Id("ptr").Op("*").Qual("C", o.cStruct),
		jen.Id("ctx").Op("*").Id("Context"),
	)

	f.Func().Id(fromPtr(o.wrapper)).Params(
		jen.Id("ctx").Op("*").Id("Context"),
		jen.Id("ptr").Op("*").Qual("C", o.cStruct),
	).Op("*").Id(o.wrapper).Block(
		jen.Id("o").Op(":=").Op("&").Id(o.wrapper).Values(jen.Dict{
			jen.Id("ptr"): jen.Id("ptr"),
			jen.Id("ctx"): jen.Id("ctx"),
		}),
		jen.Qual("runtime", "SetFinalizer").Call(jen.Id("o"), jen.Parens(jen.Op("*").Id(o.wrapper)).Dot("Free")),
		jen.Return(jen.Id("o")),
	)

	genFree(f, o.wrapper, o.ops.Free, "o")
}

// genRecord emits the constructor and one projection per field of a
// record opaque type. Fields are emitted in manifest order.
func genRecord(f *jen.File, o opaqueInfo, r *manifest.Record, fields []value) {
	params := make([]jen.Code, len(fields))
	args := []jen.Code{jen.Id("ctx").Dot("ctx"), jen.Op("&").Id("out")}
	for i := range fields {
		fields[i].ident = gen.SafeIdent(fields[i].ident, recordReserved)
		params[i] = jen.Id(fields[i].ident).Add(fields[i].goTypeCode())
		args = append(args, fields[i].arg())
	}

	f.Commentf("New%s builds a %s from its fields.", o.wrapper, o.name)
	f.Func().Id("New"+o.wrapper).Params(
		append([]jen.Code{jen.Id("ctx").Op("*").Id("Context")}, params...)...,
	).Params(jen.Op("*").Id(o.wrapper), jen.Error()).BlockFunc(func(g *jen.Group) {
		for _, fd := range fields {
			if !fd.scalar {
				g.Add(nilCheck(fd, jen.Nil()))
			}
		}
		g.Var().Id("out").Op("*").Qual("C", o.cStruct)
		g.Add(statusCheck(jen.Qual("C", r.New).Call(args...), jen.Nil()))
		g.If(jen.Id("out").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Id("ErrNullPointer")))
		g.Id("o").Op(":=").Id(fromPtr(o.wrapper)).Call(jen.Id("ctx"), jen.Id("out"))
		g.Add(syncOrFree(jen.Id("ctx"), []string{"o"}, jen.Nil()))
		g.Return(jen.Id("o"), jen.Nil())
	})

	for i, fd := range r.Fields {
		v := fields[i]
		method := "Get" + gen.Pascal(fd.Name)
		f.Commentf("%s projects the %s field.", method, fd.Name)
		f.Func().Params(jen.Id("o").Op("*").Id(o.wrapper)).Id(method).Params().Params(v.goTypeCode(), jen.Error()).BlockFunc(func(g *jen.Group) {
			g.If(jen.Id("o").Dot("ptr").Op("==").Nil()).Block(jen.Return(v.zero(), jen.Id("ErrNullPointer")))
			g.Var().Id("out").Add(v.cVar())
			g.Add(statusCheck(jen.Qual("C", fd.Project).Call(jen.Id("o").Dot("ctx").Dot("ctx"), jen.Op("&").Id("out"), jen.Id("o").Dot("ptr")), v.zero()))
			if v.scalar {
				g.Add(syncOrFree(jen.Id("o").Dot("ctx"), nil, v.zero()))
				g.Return(v.wrap(jen.Id("o").Dot("ctx"), jen.Id("out")), jen.Nil())
				return
			}
			g.If(jen.Id("out").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Id("ErrNullPointer")))
			g.Id("res").Op(":=").Add(v.wrap(jen.Id("o").Dot("ctx"), jen.Id("out")))
			g.Add(syncOrFree(jen.Id("o").Dot("ctx"), []string{"res"}, jen.Nil()))
			g.Return(jen.Id("res"), jen.Nil())
		})
	}
}
