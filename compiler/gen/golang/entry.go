package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// contextMethods are the methods of the generated Context. An entry point
// whose name collides with one of them gets an "Entry" prefix.
var contextMethods = gen.Names(
	"Free", "Sync", "ClearCaches", "LastError", "Report",
	"PauseProfiling", "UnpauseProfiling",
)

// EntryMethod returns the Context method name of an entry point.
func EntryMethod(name string) string {
	m := gen.Pascal(name)
	if _, ok := contextMethods[m]; ok {
		return "Entry" + m
	}
	return m
}

// genEntry emits one entry point as a Context method. Output slots are
// passed first, then inputs, in manifest order.
func genEntry(f *jen.File, name string, e *manifest.Entry, ins, outs []value) {
	reserved := gen.Names("c", "err")
	for i := range outs {
		reserved[fmt.Sprintf("out%d", i)] = struct{}{}
		reserved[fmt.Sprintf("res%d", i)] = struct{}{}
	}
	params := make([]jen.Code, len(ins))
	for i := range ins {
		ins[i].ident = gen.SafeIdent(ins[i].ident, reserved)
		params[i] = jen.Id(ins[i].ident).Add(ins[i].goTypeCode())
	}

	results := make([]jen.Code, 0, len(outs)+1)
	zeros := make([]jen.Code, 0, len(outs))
	for _, o := range outs {
		results = append(results, o.goTypeCode())
		zeros = append(zeros, o.zero())
	}
	results = append(results, jen.Error())

	method := EntryMethod(name)
	f.Commentf("%s calls the entry point %s.", method, name)
	for _, in := range ins {
		if in.unique && !in.scalar {
			f.Commentf("%s may be consumed by the call; afterwards it may only be freed.", in.ident)
		}
	}
	f.Func().Params(jen.Id("c").Op("*").Id("Context")).Id(method).Params(params...).Params(results...).BlockFunc(func(g *jen.Group) {
		for _, in := range ins {
			if !in.scalar {
				g.Add(nilCheck(in, zeros...))
			}
		}
		args := []jen.Code{jen.Id("c").Dot("ctx")}
		for i, o := range outs {
			id := fmt.Sprintf("out%d", i)
			g.Var().Id(id).Add(o.cVar())
			args = append(args, jen.Op("&").Id(id))
		}
		for _, in := range ins {
			args = append(args, in.arg())
		}
		g.Add(statusCheck(jen.Qual("C", e.CFun).Call(args...), zeros...))

		rets := make([]jen.Code, 0, len(outs)+1)
		var refs []string
		for i, o := range outs {
			raw := jen.Id(fmt.Sprintf("out%d", i))
			if o.scalar {
				rets = append(rets, o.wrap(jen.Id("c"), raw))
				continue
			}
			id := fmt.Sprintf("res%d", i)
			g.Id(id).Op(":=").Add(o.wrap(jen.Id("c"), raw))
			refs = append(refs, id)
			rets = append(rets, jen.Id(id))
		}
		g.Add(syncOrFree(jen.Id("c"), refs, zeros...))
		g.Return(append(rets, jen.Nil())...)
	})
}
