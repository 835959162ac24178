package golang

import (
	"github.com/dave/jennifer/jen"
)

// genArray emits the wrapper of one array type: constructor, accessors,
// destructor and the internal from-pointer path.
func genArray(f *jen.File, a arrayInfo) {
	recv := jen.Id("a").Op("*").Id(a.wrapper)
	handle := func() *jen.Statement { return jen.Op("*").Qual("C", a.cStruct) }
	dims := func() *jen.Statement { return jen.Index(jen.Lit(a.rank)).Int64() }
	elemGo := a.elem.Wrapper

	f.Commentf("%s wraps the array type %s (%s elements, rank %d).", a.wrapper, a.name, elemGo, a.rank)
	f.Type().Id(a.wrapper).Struct(
		jen.Id("ptr").Add(handle()),
		jen.Id("shape").Add(dims()),
		jen.Id("ctx").Op("*").Id("Context"),
	)

	// Constructor.
	dimArgs := make([]jen.Code, a.rank)
	for i := range dimArgs {
		dimArgs[i] = jen.Qual("C", "int64_t").Call(jen.Id("dims").Index(jen.Lit(i)))
	}
	f.Commentf("New%s copies data into a new array of the given dimensions.", a.wrapper)
	f.Comment("It returns ErrInvalidShape if len(data) is not the product of dims.")
	f.Func().Id("New"+a.wrapper).Params(
		jen.Id("ctx").Op("*").Id("Context"),
		jen.Id("dims").Add(dims()),
		jen.Id("data").Index().Id(elemGo),
	).Params(jen.Op("*").Id(a.wrapper), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.If(jen.Op("!").Id("shapeMatches").Call(jen.Id("dims").Index(jen.Empty(), jen.Empty()), jen.Len(jen.Id("data")))).Block(
			jen.Return(jen.Nil(), jen.Id("ErrInvalidShape")),
		)
		for _, c := range cPtr("data", a.elem.Foreign) {
			g.Add(c)
		}
		g.Id("ptr").Op(":=").Qual("C", a.ops.New).Call(append([]jen.Code{jen.Id("ctx").Dot("ctx"), jen.Id("p")}, dimArgs...)...)
		g.If(jen.Id("ptr").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Id("ErrNullPointer")))
		g.Id("arr").Op(":=").Id("new" + a.wrapper).Call(jen.Id("ctx"), jen.Id("ptr"), jen.Id("dims"))
		g.Add(syncOrFree(jen.Id("ctx"), []string{"arr"}, jen.Nil()))
		g.Return(jen.Id("arr"), jen.Nil())
	})

	f.Func().Id("new"+a.wrapper).Params(
		jen.Id("ctx").Op("*").Id("Context"),
		jen.Id("ptr").Add(handle()),
		jen.Id("shape").Add(dims()),
	).Op("*").Id(a.wrapper).Block(
		jen.Id("a").Op(":=").Op("&").Id(a.wrapper).Values(jen.Dict{
			jen.Id("ptr"):   jen.Id("ptr"),
			jen.Id("shape"): jen.Id("shape"),
			jen.Id("ctx"):   jen.Id("ctx"),
		}),
		jen.Qual("runtime", "SetFinalizer").Call(jen.Id("a"), jen.Parens(jen.Op("*").Id(a.wrapper)).Dot("Free")),
		jen.Return(jen.Id("a")),
	)

	// From an owned pointer: the shape is read back from the library.
	f.Commentf("%s takes ownership of ptr and reads its shape.", fromPtr(a.wrapper))
	f.Func().Id(fromPtr(a.wrapper)).Params(
		jen.Id("ctx").Op("*").Id("Context"),
		jen.Id("ptr").Add(handle()),
	).Op("*").Id(a.wrapper).Block(
		jen.Id("dims").Op(":=").Qual("unsafe", "Slice").Call(
			jen.Qual("C", a.ops.Shape).Call(jen.Id("ctx").Dot("ctx"), jen.Id("ptr")),
			jen.Lit(a.rank),
		),
		jen.Var().Id("shape").Add(dims()),
		jen.For(jen.Id("i").Op(":=").Range().Id("shape")).Block(
			jen.Id("shape").Index(jen.Id("i")).Op("=").Int64().Call(jen.Id("dims").Index(jen.Id("i"))),
		),
		jen.Return(jen.Id("new"+a.wrapper).Call(jen.Id("ctx"), jen.Id("ptr"), jen.Id("shape"))),
	)

	f.Comment("Shape returns the array dimensions.")
	f.Func().Params(recv.Clone()).Id("Shape").Params().Add(dims()).Block(
		jen.Return(jen.Id("a").Dot("shape")),
	)

	f.Comment("Values copies the array contents into data, which must hold exactly")
	f.Comment("as many elements as the array.")
	f.Func().Params(recv.Clone()).Id("Values").Params(jen.Id("data").Index().Id(elemGo)).Error().BlockFunc(func(g *jen.Group) {
		g.If(jen.Op("!").Id("shapeMatches").Call(jen.Id("a").Dot("shape").Index(jen.Empty(), jen.Empty()), jen.Len(jen.Id("data")))).Block(
			jen.Return(jen.Id("ErrInvalidShape")),
		)
		g.If(jen.Id("a").Dot("ptr").Op("==").Nil()).Block(jen.Return(jen.Id("ErrNullPointer")))
		for _, c := range cPtr("data", a.elem.Foreign) {
			g.Add(c)
		}
		g.Add(statusCheck(jen.Qual("C", a.ops.Values).Call(jen.Id("a").Dot("ctx").Dot("ctx"), jen.Id("a").Dot("ptr"), jen.Id("p"))))
		g.Return(jen.Id("a").Dot("ctx").Dot("maybeSync").Call())
	})

	f.Comment("Get returns a copy of the array contents.")
	f.Func().Params(recv.Clone()).Id("Get").Params().Params(jen.Index().Id(elemGo), jen.Error()).Block(
		jen.Id("size").Op(":=").Int64().Call(jen.Lit(1)),
		jen.For(jen.List(jen.Id("_"), jen.Id("d")).Op(":=").Range().Id("a").Dot("shape")).Block(
			jen.Id("size").Op("*=").Id("d"),
		),
		jen.Id("data").Op(":=").Make(jen.Index().Id(elemGo), jen.Id("size")),
		jen.If(jen.Err().Op(":=").Id("a").Dot("Values").Call(jen.Id("data")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("data"), jen.Nil()),
	)

	genFree(f, a.wrapper, a.ops.Free, "a")
}

// genFree emits an idempotent Free that releases the handle exactly once.
func genFree(f *jen.File, wrapper, cfun, r string) {
	f.Comment("Free releases the foreign handle. Calling Free more than once is a")
	f.Comment("no-op.")
	f.Func().Params(jen.Id(r).Op("*").Id(wrapper)).Id("Free").Params().Error().Block(
		jen.If(jen.Id(r).Dot("ptr").Op("==").Nil()).Block(jen.Return(jen.Nil())),
		jen.Qual("runtime", "SetFinalizer").Call(jen.Id(r), jen.Nil()),
		jen.List(jen.Id("ptr")).Op(":=").Id(r).Dot("ptr"),
		jen.Id(r).Dot("ptr").Op("=").Nil(),
		jen.If(jen.Id(r).Dot("ctx").Dot("ctx").Op("==").Nil()).Block(
			jen.Comment("the context, and all memory it owned, is gone"),
			jen.Return(jen.Nil()),
		),
		jen.Return(jen.Id("statusError").Call(jen.Qual("C", cfun).Call(jen.Id(r).Dot("ctx").Dot("ctx"), jen.Id("ptr")))),
	)
}

// syncOrFree runs the context's auto-sync and, on failure, frees the named
// wrappers before returning the error.
func syncOrFree(ctx *jen.Statement, wrappers []string, results ...jen.Code) jen.Code {
	return jen.If(
		jen.Err().Op(":=").Add(ctx.Clone()).Dot("maybeSync").Call(),
		jen.Err().Op("!=").Nil(),
	).BlockFunc(func(g *jen.Group) {
		for _, w := range wrappers {
			g.Id(w).Dot("Free").Call()
		}
		g.Return(append(results, jen.Err())...)
	})
}
