package rust_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/gen/rust"
	"github.com/syssam/ffigen/compiler/manifest"
)

func loadManifest(t *testing.T, name string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseFile(filepath.Join("..", "..", "manifest", "testdata", name))
	require.NoError(t, err)
	return m
}

func render(t *testing.T, name string) string {
	t.Helper()
	m := loadManifest(t, name)
	out := filepath.Join(t.TempDir(), "lib.rs")
	cfg := gen.MustNewConfig(gen.WithFormat(false))
	b := rust.New(cfg)
	require.NoError(t, gen.Generate(context.Background(), m, b, out, cfg))
	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	return buf.String()
}

func TestBindings(t *testing.T) {
	src := render(t, "binary_search.json")

	assert.Contains(t, src, "// Code generated by ffigen. DO NOT EDIT.")
	assert.Contains(t, src, "pub enum Error {")
	assert.Contains(t, src, "Code(std::os::raw::c_int),")
	assert.Contains(t, src, "NullPtr,")
	assert.Contains(t, src, "InvalidShape,")
	assert.Contains(t, src, "pub fn new_with_options(options: Options) -> Result<Self, Error>")
	assert.Contains(t, src, "pub fn clear_caches(&self) -> Result<(), Error>")
	assert.Contains(t, src, "fn futhark_context_sync(_: *mut futhark_context) -> std::os::raw::c_int;")
	assert.NotContains(t, src, "num_threads")
	assert.NotContains(t, src, "set_device")

	t.Run("multicore", func(t *testing.T) {
		src := render(t, "record.json")
		assert.Contains(t, src, "pub fn threads(mut self, n: u32) -> Self")
		assert.Contains(t, src, "futhark_context_config_set_num_threads(config, options.num_threads as std::os::raw::c_int);")
		assert.NotContains(t, src, "set_device")
	})

	t.Run("gpu", func(t *testing.T) {
		src := render(t, "nested.json")
		assert.Contains(t, src, "pub fn device(mut self, name: impl AsRef<str>) -> Self")
		assert.Contains(t, src, "futhark_context_config_set_device(config, device.as_ptr());")
		assert.NotContains(t, src, "num_threads")
	})
}

func TestArrayType(t *testing.T) {
	src := render(t, "binary_search.json")

	assert.Contains(t, src, "struct futhark_i64_1d {")
	assert.Contains(t, src, "pub struct ArrayI64D1<'a> {")
	assert.Contains(t, src, "shape: [i64; 1],")
	assert.Contains(t, src, "pub fn new(ctx: &'a Context, dims: [i64; 1], data: impl AsRef<[i64]>) -> Result<Self, Error>")
	assert.Contains(t, src, "if !shape_matches(&dims, data.len()) {\n            return Err(Error::InvalidShape);")
	assert.Contains(t, src, "futhark_new_i64_1d(ctx.context, data.as_ptr(), dims[0])")
	assert.Contains(t, src, "if !shape_matches(&self.shape, data.len()) {")
	assert.Contains(t, src, "status(unsafe { futhark_values_i64_1d(self.ctx.context, self.ptr, data.as_mut_ptr()) })?;")
	assert.Contains(t, src, "pub fn get(&self) -> Result<Vec<i64>, Error>")
	assert.Contains(t, src, "futhark_shape_i64_1d(ctx.context, ptr)")
	assert.Contains(t, src, "impl<'a> Drop for ArrayI64D1<'a> {")
	assert.Contains(t, src, "fn futhark_new_i64_1d(_: *mut futhark_context, _: *const i64, dim0: i64) -> *mut futhark_i64_1d;")

	t.Run("rank 2", func(t *testing.T) {
		src := render(t, "record.json")
		assert.Contains(t, src, "futhark_new_f32_2d(ctx.context, data.as_ptr(), dims[0], dims[1])")
		assert.Contains(t, src, "dim0: i64, dim1: i64")
	})
}

func TestEntry(t *testing.T) {
	t.Run("binary search", func(t *testing.T) {
		src := render(t, "binary_search.json")
		assert.Contains(t, src, "pub fn binary_search(&self, arr: &ArrayI64D1, target: i64) -> Result<i64, Error>")
		assert.Contains(t, src, "let mut out0 = i64::default();")
		assert.Contains(t, src, "futhark_entry_binary_search(self.context, &mut out0, arr.ptr, target)")
		assert.Contains(t, src, "fn futhark_entry_binary_search(_: *mut futhark_context, _: *mut i64, _: *const futhark_i64_1d, _: i64) -> std::os::raw::c_int;")
	})

	t.Run("tuple result", func(t *testing.T) {
		src := render(t, "record.json")
		assert.Contains(t, src, "pub fn matrix_sum(&self, m: &ArrayF32D2) -> Result<(f32, ArrayF32D1<'_>), Error>")
		assert.Contains(t, src, "let synced = self.auto_sync();\n        let result = (out0, ArrayF32D1::from_ptr(self, out1));\n        synced?;\n        Ok(result)")
		assert.Contains(t, src, "/// `p` may be consumed by the call and must only be dropped afterwards.")
	})

	t.Run("no outputs", func(t *testing.T) {
		src := render(t, "nested.json")
		assert.Contains(t, src, "pub fn touch(&self, flag: bool) -> Result<(), Error>")
		assert.Contains(t, src, "let synced = self.auto_sync();\n        let result = ();\n        synced?;")
	})
}

func TestRecord(t *testing.T) {
	src := render(t, "record.json")

	assert.Contains(t, src, "pub struct Point<'a> {")
	assert.Contains(t, src, "pub fn new(ctx: &'a Context, data: &ArrayF32D1<'a>, x: f32) -> Result<Self, Error>")
	assert.Contains(t, src, "futhark_new_opaque_point(ctx.context, &mut out, data.ptr, x)")
	assert.Contains(t, src, "pub fn get_data(&self) -> Result<ArrayF32D1<'a>, Error>")
	assert.Contains(t, src, "pub fn get_x(&self) -> Result<f32, Error>")
	assert.Contains(t, src, "let mut out = f32::default();")

	t.Run("projections sync before reading the slot", func(t *testing.T) {
		assert.Contains(t, src, `futhark_project_opaque_point_data(self.ctx.context, &mut out, self.ptr) })?;
        if out.is_null() {
            return Err(Error::NullPtr);
        }
        let synced = self.ctx.auto_sync();
        let value = ArrayF32D1::from_ptr(self.ctx, out);
        synced?;
        Ok(value)`)
		assert.Contains(t, src, `futhark_project_opaque_point_x(self.ctx.context, &mut out, self.ptr) })?;
        let synced = self.ctx.auto_sync();
        let value = out;
        synced?;
        Ok(value)`)
	})
	assert.Contains(t, src, "fn futhark_project_opaque_point_data(_: *mut futhark_context, _: *mut *mut futhark_f32_1d, _: *const futhark_opaque_point) -> std::os::raw::c_int;")
	assert.Contains(t, src, "fn futhark_new_opaque_point(_: *mut futhark_context, _: *mut *mut futhark_opaque_point, _: *const futhark_f32_1d, _: f32) -> std::os::raw::c_int;")
}

func TestRecordFieldDeclaredLater(t *testing.T) {
	src := render(t, "nested.json")

	assert.Contains(t, src, "pub fn new(ctx: &'a Context, inner: &ZInner<'a>, n: u8) -> Result<Self, Error>")
	assert.Contains(t, src, "let value = ZInner::from_ptr(self.ctx, out);")
}

func TestOpaqueNameCollision(t *testing.T) {
	src := render(t, "reserved.json")

	assert.Equal(t, 1, strings.Count(src, "pub struct Context {"))
	assert.Equal(t, 1, strings.Count(src, "pub enum Error {"))
	assert.Contains(t, src, "pub struct ContextOpaque<'a> {")
	assert.Contains(t, src, "pub struct ErrorOpaque<'a> {")
	assert.Contains(t, src, "impl<'a> ContextOpaque<'a> {")
	assert.Contains(t, src, "pub fn make(&self, e: &ErrorOpaque) -> Result<ContextOpaque<'_>, Error>")
}

func TestUnsupportedHalf(t *testing.T) {
	m := loadManifest(t, "half.json")
	out := filepath.Join(t.TempDir(), "lib.rs")

	err := gen.Generate(context.Background(), m, rust.New(nil), out, nil)
	require.Error(t, err)
	assert.True(t, ffigen.IsUnsupportedType(err))
	assert.NoFileExists(t, out)
}

func TestDeterministic(t *testing.T) {
	assert.Equal(t, render(t, "record.json"), render(t, "record.json"))
}

func TestEntryMethod(t *testing.T) {
	assert.Equal(t, "binary_search", rust.EntryMethod("binary_search"))
	assert.Equal(t, "entry_sync", rust.EntryMethod("sync"))
	assert.Equal(t, "entry_new", rust.EntryMethod("new"))
}
