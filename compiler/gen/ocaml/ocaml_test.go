package ocaml_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/gen/ocaml"
	"github.com/syssam/ffigen/compiler/manifest"
)

func loadManifest(t *testing.T, name string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseFile(filepath.Join("..", "..", "manifest", "testdata", name))
	require.NoError(t, err)
	return m
}

// generate writes lib.ml and lib.mli and returns both.
func generate(t *testing.T, name string) (ml, mli string) {
	t.Helper()
	m := loadManifest(t, name)
	out := filepath.Join(t.TempDir(), "lib.ml")
	cfg := gen.MustNewConfig(gen.WithFormat(false))
	require.NoError(t, gen.Generate(context.Background(), m, ocaml.New(cfg), out, cfg))
	a, err := os.ReadFile(out)
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(filepath.Dir(out), "lib.mli"))
	require.NoError(t, err)
	return string(a), string(b)
}

func TestBindings(t *testing.T) {
	ml, mli := generate(t, "binary_search.json")

	t.Run("implementation", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(ml, "(* Code generated by ffigen. DO NOT EDIT. *)"))
		assert.Contains(t, ml, "type error = InvalidShape | NullPtr | Code of int")
		assert.Contains(t, ml, "exception Error of error")
		assert.Contains(t, ml, "module Bindings = struct\n  open Foreign")
		assert.Contains(t, ml, `let futhark_context_sync = foreign "futhark_context_sync" ((ptr void) @-> returning int)`)
		assert.Contains(t, ml, `let futhark_context_config_new = foreign "futhark_context_config_new" (void @-> returning (ptr void))`)
		assert.Contains(t, ml, "let v () = v_with_options default_options")
		assert.NotContains(t, ml, "num_threads")
		assert.NotContains(t, ml, "set_device")
	})

	t.Run("interface", func(t *testing.T) {
		assert.Contains(t, mli, "exception Error of error")
		assert.Contains(t, mli, "module Context : sig")
		assert.Contains(t, mli, "val v_with_options : options -> t")
		assert.Contains(t, mli, "val get_error : t -> string option")
	})

	t.Run("multicore", func(t *testing.T) {
		ml, mli := generate(t, "record.json")
		assert.Contains(t, ml, "Option.iter (Bindings.futhark_context_config_set_num_threads config) o.num_threads;")
		assert.Contains(t, mli, "num_threads : int option;")
	})

	t.Run("gpu", func(t *testing.T) {
		ml, mli := generate(t, "nested.json")
		assert.Contains(t, ml, "Option.iter (Bindings.futhark_context_config_set_device config) o.device;")
		assert.Contains(t, mli, "device : string option;")
	})
}

func TestArrayType(t *testing.T) {
	ml, mli := generate(t, "binary_search.json")

	assert.Contains(t, ml, "module Array_i64_1d = struct")
	assert.Contains(t, ml, `let futhark_new_i64_1d = foreign "futhark_new_i64_1d" ((ptr void) @-> (ptr int64_t) @-> int64_t @-> returning (ptr void))`)
	assert.Contains(t, ml, `let futhark_shape_i64_1d = foreign "futhark_shape_i64_1d" ((ptr void) @-> (ptr void) @-> returning (ptr int64_t))`)
	assert.Contains(t, ml, "if Array.length dims <> 1 || not (shape_matches dims (Bigarray.Array1.dim data)) then\n      raise (Error InvalidShape);")
	assert.Contains(t, ml, "Bindings.futhark_new_i64_1d ctx.Context.handle (bigarray_start array1 data) (Int64.of_int dims.(0))")
	assert.Contains(t, ml, "check (Bindings.futhark_values_i64_1d t.ctx.Context.handle t.ptr (bigarray_start array1 data));")
	assert.Contains(t, ml, "Bigarray.Array1.create Bigarray.int64 Bigarray.c_layout")
	assert.Contains(t, ml, "Gc.finalise finalise t;")

	assert.Contains(t, mli, "module Array_i64_1d : sig")
	assert.Contains(t, mli, "val v : Context.t -> int array -> (int64, Bigarray.int64_elt, Bigarray.c_layout) Bigarray.Array1.t -> t")
	assert.Contains(t, mli, "val shape : t -> int array")
}

func TestEntry(t *testing.T) {
	t.Run("binary search", func(t *testing.T) {
		ml, mli := generate(t, "binary_search.json")
		assert.Contains(t, ml, `let futhark_entry_binary_search = foreign "futhark_entry_binary_search" ((ptr void) @-> (ptr int64_t) @-> (ptr void) @-> int64_t @-> returning int)`)
		assert.Contains(t, ml, "  let binary_search ctx arr target =")
		assert.Contains(t, ml, "if arr.Array_i64_1d.freed then raise (Error NullPtr);")
		assert.Contains(t, ml, "let out0 = allocate int64_t 0L in")
		assert.Contains(t, ml, "check (Bindings.futhark_entry_binary_search ctx.Context.handle out0 arr.Array_i64_1d.ptr target);")
		assert.Contains(t, ml, "    let synced = Context.try_auto_sync ctx in\n    let r0 = !@out0 in\n    Option.iter raise synced;\n    r0\n")
		assert.Contains(t, mli, "val binary_search : Context.t -> Array_i64_1d.t -> int64 -> int64")
	})

	t.Run("tuple result", func(t *testing.T) {
		ml, mli := generate(t, "record.json")
		assert.Contains(t, ml, "let r1 = Array_f32_1d.of_ptr ctx !@out1 in")
		assert.Contains(t, ml, "    let r1 = Array_f32_1d.of_ptr ctx !@out1 in\n    Option.iter raise synced;\n    (r0, r1)\n")
		assert.Contains(t, mli, "val matrix_sum : Context.t -> Array_f32_2d.t -> float * Array_f32_1d.t")
	})

	t.Run("no inputs or outputs", func(t *testing.T) {
		ml, mli := generate(t, "nested.json")
		assert.Contains(t, ml, "  let pair ctx () =")
		assert.Contains(t, mli, "val pair : Context.t -> unit -> int32 * Z_inner.t")
		assert.Contains(t, ml, "check (Bindings.futhark_entry_touch ctx.Context.handle flag);")
		assert.Contains(t, mli, "val touch : Context.t -> bool -> unit")
	})
}

func TestRecord(t *testing.T) {
	ml, mli := generate(t, "record.json")

	assert.Contains(t, ml, "module Point = struct")
	assert.Contains(t, ml, "  let v ctx data x =")
	assert.Contains(t, ml, "check (Bindings.futhark_new_opaque_point ctx.Context.handle out data.Array_f32_1d.ptr x);")
	assert.Contains(t, ml, "  let get_data t =")
	assert.Contains(t, ml, "let out = allocate float 0.0 in")
	assert.Contains(t, ml, "let try_auto_sync t =")

	t.Run("projections sync before reading the slot", func(t *testing.T) {
		assert.Contains(t, ml, `    check (Bindings.futhark_project_opaque_point_data t.ctx.Context.handle out t.ptr);
    if is_null !@out then raise (Error NullPtr);
    let synced = Context.try_auto_sync t.ctx in
    let value = Array_f32_1d.of_ptr t.ctx !@out in
    Option.iter raise synced;
    value
`)
		assert.Contains(t, ml, `    check (Bindings.futhark_project_opaque_point_x t.ctx.Context.handle out t.ptr);
    let synced = Context.try_auto_sync t.ctx in
    let value = !@out in
    Option.iter raise synced;
    value
`)
	})
	assert.Contains(t, ml, `let futhark_project_opaque_point_x = foreign "futhark_project_opaque_point_x" ((ptr void) @-> (ptr float) @-> (ptr void) @-> returning int)`)
	assert.Contains(t, ml, `let futhark_new_opaque_point = foreign "futhark_new_opaque_point" ((ptr void) @-> (ptr (ptr void)) @-> (ptr void) @-> float @-> returning int)`)

	assert.Contains(t, mli, "val v : Context.t -> Array_f32_1d.t -> float -> t")
	assert.Contains(t, mli, "val get_data : t -> Array_f32_1d.t")
	assert.Contains(t, mli, "val get_x : t -> float")
}

func TestModulesInDependencyOrder(t *testing.T) {
	ml, mli := generate(t, "nested.json")

	// a_outer sorts first but refers to z_inner.
	for _, src := range []string{ml, mli} {
		inner := strings.Index(src, "module Z_inner ")
		outer := strings.Index(src, "module A_outer ")
		require.NotEqual(t, -1, inner)
		require.NotEqual(t, -1, outer)
		assert.Less(t, inner, outer)
	}
	assert.Contains(t, ml, "let get_inner t =")
	assert.Contains(t, ml, "let value = Z_inner.of_ptr t.ctx !@out in")
	assert.Contains(t, ml, "let out = allocate uint8_t Unsigned.UInt8.zero in")
	assert.Contains(t, mli, "val v : Context.t -> Z_inner.t -> Unsigned.uint8 -> t")
}

func TestOpaqueNameCollision(t *testing.T) {
	ml, mli := generate(t, "reserved.json")

	for _, src := range []string{ml, mli} {
		assert.Equal(t, 1, strings.Count(src, "module Context "))
		assert.Contains(t, src, "module Context_opaque ")
	}
	assert.Contains(t, mli, "val make : Context.t -> Error.t -> Context_opaque.t")
}

func TestUnsupported(t *testing.T) {
	t.Run("half", func(t *testing.T) {
		m := loadManifest(t, "half.json")
		out := filepath.Join(t.TempDir(), "lib.ml")

		err := gen.Generate(context.Background(), m, ocaml.New(nil), out, nil)
		require.Error(t, err)
		assert.True(t, ffigen.IsUnsupportedType(err))
		assert.NoFileExists(t, out)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "lib.mli"))
	})

	t.Run("bool array", func(t *testing.T) {
		m := loadManifest(t, "binary_search.json")
		m.Types["[]i64"].Array.ElemType = manifest.Bool
		out := filepath.Join(t.TempDir(), "lib.ml")

		err := gen.Generate(context.Background(), m, ocaml.New(nil), out, nil)
		require.Error(t, err)
		assert.True(t, ffigen.IsUnsupportedType(err))
	})
}

func TestSecondaryPath(t *testing.T) {
	b := ocaml.New(nil)
	assert.Equal(t, "out/lib.mli", b.SecondaryPath("out/lib.ml"))
}

func TestDeterministic(t *testing.T) {
	ml1, mli1 := generate(t, "nested.json")
	ml2, mli2 := generate(t, "nested.json")
	assert.Equal(t, ml1, ml2)
	assert.Equal(t, mli1, mli2)
}
