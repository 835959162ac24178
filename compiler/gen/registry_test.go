package gen_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

func TestRegistry(t *testing.T) {
	t.Run("identity fallback", func(t *testing.T) {
		r := gen.NewRegistry("go")
		assert.Equal(t, "[]i64", r.Resolve("[]i64"))
		assert.False(t, r.Registered("[]i64"))

		f, err := r.Foreign("[]i64")
		require.NoError(t, err)
		assert.Equal(t, "[]i64", f)
		w, err := r.Wrapper("[]i64")
		require.NoError(t, err)
		assert.Equal(t, "[]i64", w)
	})

	t.Run("two directions", func(t *testing.T) {
		r := gen.NewRegistry("go")
		r.Register("[]i64", "futhark_i64_1d")
		r.RegisterWrapper("futhark_i64_1d", "ArrayI64D1")

		assert.True(t, r.Registered("[]i64"))
		assert.Equal(t, "futhark_i64_1d", r.Resolve("[]i64"))
		w, err := r.Wrapper("[]i64")
		require.NoError(t, err)
		assert.Equal(t, "ArrayI64D1", w)
	})

	t.Run("unsupported", func(t *testing.T) {
		r := gen.NewRegistry("ocaml")
		r.RegisterUnsupported("f16")

		assert.Equal(t, "", r.Resolve("f16"))
		_, err := r.Foreign("f16")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ffigen.ErrUnsupportedType))
		_, err = r.Wrapper("f16")
		assert.True(t, ffigen.IsUnsupportedType(err))

		err = r.Check("f16", "array []f16")
		var ute *ffigen.UnsupportedTypeError
		require.True(t, errors.As(err, &ute))
		assert.Equal(t, "ocaml", ute.Backend)
		assert.Equal(t, "array []f16", ute.Context)
		assert.NoError(t, r.Check("i32", "input"))
	})

	t.Run("scalar table", func(t *testing.T) {
		r := gen.NewRegistry("go")
		r.RegisterScalars(map[manifest.ElemType]gen.Scalar{
			manifest.I32: {Foreign: "int32_t", Wrapper: "int32"},
			manifest.F64: {Foreign: "double"},
		})
		assert.Equal(t, "int32_t", r.Resolve("i32"))
		w, err := r.Wrapper("i32")
		require.NoError(t, err)
		assert.Equal(t, "int32", w)
		w, err = r.Wrapper("f64")
		require.NoError(t, err)
		assert.Equal(t, "double", w)
		assert.True(t, r.Registered("u8"))
		assert.Error(t, r.Check("u8", ""))
		assert.Error(t, r.Check("f16", ""))
	})
}
