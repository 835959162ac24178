package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/ffigen/compiler/manifest"
)

// genErrors emits the error taxonomy shared by all wrappers.
func genErrors(f *jen.File) {
	f.Var().Defs(
		jen.Comment("ErrNullPointer is returned when a foreign constructor returns NULL"),
		jen.Comment("or a freed wrapper is used."),
		jen.Id("ErrNullPointer").Op("=").Qual("errors", "New").Call(jen.Lit("futhark: null pointer")),
		jen.Comment("ErrInvalidShape is returned when the length of a buffer does not"),
		jen.Comment("match the product of the array dimensions."),
		jen.Id("ErrInvalidShape").Op("=").Qual("errors", "New").Call(jen.Lit("futhark: invalid shape")),
	)

	f.Comment("StatusError is a non-zero status code returned by a foreign operation.")
	f.Type().Id("StatusError").Struct(
		jen.Id("Code").Int(),
	)

	f.Comment("Error implements the error interface.")
	f.Func().Params(jen.Id("e").Op("*").Id("StatusError")).Id("Error").Params().String().Block(
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("futhark: status code %d"), jen.Id("e").Dot("Code"))),
	)

	f.Func().Id("statusError").Params(jen.Id("rc").Qual("C", "int")).Error().Block(
		jen.If(jen.Id("rc").Op("!=").Lit(0)).Block(
			jen.Return(jen.Op("&").Id("StatusError").Values(jen.Dict{
				jen.Id("Code"): jen.Int().Call(jen.Id("rc")),
			})),
		),
		jen.Return(jen.Nil()),
	)

	f.Func().Id("cBool").Params(jen.Id("b").Bool()).Qual("C", "int").Block(
		jen.If(jen.Id("b")).Block(jen.Return(jen.Lit(1))),
		jen.Return(jen.Lit(0)),
	)

	f.Func().Id("shapeMatches").Params(jen.Id("dims").Index().Int64(), jen.Id("n").Int()).Bool().Block(
		jen.Id("size").Op(":=").Int64().Call(jen.Lit(1)),
		jen.For(jen.List(jen.Id("_"), jen.Id("d")).Op(":=").Range().Id("dims")).Block(
			jen.If(jen.Id("d").Op("<").Lit(0)).Block(jen.Return(jen.False())),
			jen.Id("size").Op("*=").Id("d"),
		),
		jen.Return(jen.Id("size").Op("==").Int64().Call(jen.Id("n"))),
	)
}

// genOptions emits Options. NumThreads exists only for multicore variants
// and Device only for GPU variants.
func genOptions(f *jen.File, v manifest.Variant) {
	f.Comment("Options configures a Context.")
	f.Type().Id("Options").StructFunc(func(g *jen.Group) {
		g.Comment("Debug enables debugging output of the library.")
		g.Id("Debug").Bool()
		g.Comment("Profile enables profiling.")
		g.Id("Profile").Bool()
		g.Comment("Log enables logging.")
		g.Id("Log").Bool()
		g.Comment("CacheFile is where compiled kernels are cached, if set.")
		g.Id("CacheFile").String()
		if v.IsMulticore() {
			g.Comment("NumThreads sets the thread pool size; 0 uses one per core.")
			g.Id("NumThreads").Int()
		}
		if v.IsGPU() {
			g.Comment("Device selects the device by name.")
			g.Id("Device").String()
		}
		g.Comment("AutoSync synchronizes the context after every foreign call.")
		g.Id("AutoSync").Bool()
	})

	f.Comment("DefaultOptions returns the options used by NewContext.")
	f.Func().Id("DefaultOptions").Params().Id("Options").Block(
		jen.Return(jen.Id("Options").Values(jen.Dict{
			jen.Id("AutoSync"): jen.True(),
		})),
	)
}

// genContext emits Context and its lifecycle methods.
func genContext(f *jen.File, v manifest.Variant) {
	cfgPtr := jen.Op("*").Qual("C", "struct_futhark_context_config")
	ctxPtr := jen.Op("*").Qual("C", "struct_futhark_context")

	f.Comment("Context owns a library context and its configuration. Wrappers")
	f.Comment("created from a Context must not outlive it.")
	f.Type().Id("Context").StructFunc(func(g *jen.Group) {
		g.Id("cfg").Add(cfgPtr)
		g.Id("ctx").Add(ctxPtr)
		g.Id("autoSync").Bool()
		g.Id("cacheFile").Op("*").Qual("C", "char")
		if v.IsGPU() {
			g.Id("device").Op("*").Qual("C", "char")
		}
	})

	f.Comment("NewContext creates a context with DefaultOptions.")
	f.Func().Id("NewContext").Params().Params(jen.Op("*").Id("Context"), jen.Error()).Block(
		jen.Return(jen.Id("NewContextWithOptions").Call(jen.Id("DefaultOptions").Call())),
	)

	f.Comment("NewContextWithOptions creates a context configured by opts.")
	f.Func().Id("NewContextWithOptions").Params(jen.Id("opts").Id("Options")).Params(jen.Op("*").Id("Context"), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Id("cfg").Op(":=").Qual("C", "futhark_context_config_new").Call()
		g.If(jen.Id("cfg").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Id("ErrNullPointer")))
		g.Id("c").Op(":=").Op("&").Id("Context").Values(jen.Dict{
			jen.Id("cfg"):      jen.Id("cfg"),
			jen.Id("autoSync"): jen.Id("opts").Dot("AutoSync"),
		})
		g.Qual("C", "futhark_context_config_set_debugging").Call(jen.Id("cfg"), jen.Id("cBool").Call(jen.Id("opts").Dot("Debug")))
		g.Qual("C", "futhark_context_config_set_profiling").Call(jen.Id("cfg"), jen.Id("cBool").Call(jen.Id("opts").Dot("Profile")))
		g.Qual("C", "futhark_context_config_set_logging").Call(jen.Id("cfg"), jen.Id("cBool").Call(jen.Id("opts").Dot("Log")))
		g.If(jen.Id("opts").Dot("CacheFile").Op("!=").Lit("")).Block(
			jen.Id("c").Dot("cacheFile").Op("=").Qual("C", "CString").Call(jen.Id("opts").Dot("CacheFile")),
			jen.Qual("C", "futhark_context_config_set_cache_file").Call(jen.Id("cfg"), jen.Id("c").Dot("cacheFile")),
		)
		if v.IsMulticore() {
			g.If(jen.Id("opts").Dot("NumThreads").Op(">").Lit(0)).Block(
				jen.Qual("C", "futhark_context_config_set_num_threads").Call(jen.Id("cfg"), jen.Qual("C", "int").Call(jen.Id("opts").Dot("NumThreads"))),
			)
		}
		if v.IsGPU() {
			g.If(jen.Id("opts").Dot("Device").Op("!=").Lit("")).Block(
				jen.Id("c").Dot("device").Op("=").Qual("C", "CString").Call(jen.Id("opts").Dot("Device")),
				jen.Qual("C", "futhark_context_config_set_device").Call(jen.Id("cfg"), jen.Id("c").Dot("device")),
			)
		}
		g.Id("c").Dot("ctx").Op("=").Qual("C", "futhark_context_new").Call(jen.Id("cfg"))
		g.If(jen.Id("c").Dot("ctx").Op("==").Nil()).Block(
			jen.Id("c").Dot("freeConfig").Call(),
			jen.Return(jen.Nil(), jen.Id("ErrNullPointer")),
		)
		g.Return(jen.Id("c"), jen.Nil())
	})

	f.Comment("Free synchronizes and releases the context. Calling Free more than")
	f.Comment("once is a no-op.")
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("Free").Params().Error().Block(
		jen.Var().Err().Error(),
		jen.If(jen.Id("c").Dot("ctx").Op("!=").Nil()).Block(
			jen.Err().Op("=").Id("statusError").Call(jen.Qual("C", "futhark_context_sync").Call(jen.Id("c").Dot("ctx"))),
			jen.Qual("C", "futhark_context_free").Call(jen.Id("c").Dot("ctx")),
			jen.Id("c").Dot("ctx").Op("=").Nil(),
		),
		jen.Id("c").Dot("freeConfig").Call(),
		jen.Return(jen.Err()),
	)

	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("freeConfig").Params().BlockFunc(func(g *jen.Group) {
		g.If(jen.Id("c").Dot("cfg").Op("!=").Nil()).Block(
			jen.Qual("C", "futhark_context_config_free").Call(jen.Id("c").Dot("cfg")),
			jen.Id("c").Dot("cfg").Op("=").Nil(),
		)
		strs := []string{"cacheFile"}
		if v.IsGPU() {
			strs = append(strs, "device")
		}
		for _, s := range strs {
			g.If(jen.Id("c").Dot(s).Op("!=").Nil()).Block(
				jen.Qual("C", "free").Call(jen.Qual("unsafe", "Pointer").Call(jen.Id("c").Dot(s))),
				jen.Id("c").Dot(s).Op("=").Nil(),
			)
		}
	})

	f.Comment("Sync waits for all pending operations on the context.")
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("Sync").Params().Error().Block(
		jen.Return(jen.Id("statusError").Call(jen.Qual("C", "futhark_context_sync").Call(jen.Id("c").Dot("ctx")))),
	)

	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("maybeSync").Params().Error().Block(
		jen.If(jen.Op("!").Id("c").Dot("autoSync")).Block(jen.Return(jen.Nil())),
		jen.Return(jen.Id("c").Dot("Sync").Call()),
	)

	f.Comment("ClearCaches releases cached device memory.")
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("ClearCaches").Params().Error().Block(
		jen.Return(jen.Id("statusError").Call(jen.Qual("C", "futhark_context_clear_caches").Call(jen.Id("c").Dot("ctx")))),
	)

	f.Comment("PauseProfiling stops collecting profiling data.")
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("PauseProfiling").Params().Block(
		jen.Qual("C", "futhark_context_pause_profiling").Call(jen.Id("c").Dot("ctx")),
	)

	f.Comment("UnpauseProfiling resumes collecting profiling data.")
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id("UnpauseProfiling").Params().Block(
		jen.Qual("C", "futhark_context_unpause_profiling").Call(jen.Id("c").Dot("ctx")),
	)

	for _, m := range []struct{ name, cfun, doc string }{
		{"LastError", "futhark_context_get_error", "LastError returns and clears the last error message, or \"\"."},
		{"Report", "futhark_context_report", "Report returns the profiling report, or \"\"."},
	} {
		f.Comment(m.doc)
		f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id(m.name).Params().String().Block(
			jen.Id("s").Op(":=").Qual("C", m.cfun).Call(jen.Id("c").Dot("ctx")),
			jen.If(jen.Id("s").Op("==").Nil()).Block(jen.Return(jen.Lit(""))),
			jen.Defer().Qual("C", "free").Call(jen.Qual("unsafe", "Pointer").Call(jen.Id("s"))),
			jen.Return(jen.Qual("C", "GoString").Call(jen.Id("s"))),
		)
	}
}
