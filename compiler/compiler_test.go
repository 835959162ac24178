package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

func loadManifest(t *testing.T, name string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseFile(filepath.Join("manifest", "testdata", name))
	require.NoError(t, err)
	return m
}

func TestBackendFor(t *testing.T) {
	tests := []struct {
		path string
		name string
	}{
		{"out/lib.go", "go"},
		{"out/lib.rs", "rust"},
		{"out/lib.ml", "ocaml"},
		{"out/LIB.RS", "rust"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b, err := compiler.BackendFor(tt.path, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.name, b.Name())
		})
	}

	t.Run("unknown extension", func(t *testing.T) {
		_, err := compiler.BackendFor("out/lib.py", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `".py"`)
	})

	t.Run("fresh backend per call", func(t *testing.T) {
		a, err := compiler.BackendFor("lib.rs", nil)
		require.NoError(t, err)
		b, err := compiler.BackendFor("lib.rs", nil)
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})
}

func TestBackendNamed(t *testing.T) {
	b, err := compiler.BackendNamed("rust", "lib.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "rust", b.Name())

	b, err = compiler.BackendNamed("golang", "lib.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "go", b.Name())

	b, err = compiler.BackendNamed("", "lib.ml", nil)
	require.NoError(t, err)
	assert.Equal(t, "ocaml", b.Name())

	_, err = compiler.BackendNamed("python", "lib.py", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go, rust, ocaml")
}

func TestGenerateFile(t *testing.T) {
	m := loadManifest(t, "binary_search.json")
	dir := t.TempDir()

	t.Run("go", func(t *testing.T) {
		out := filepath.Join(dir, "search", "search.go")
		require.NoError(t, compiler.GenerateFile(context.Background(), m, out, gen.WithFormat(false)))
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "package search")
		assert.Contains(t, string(data), "func (c *Context) BinarySearch(")
	})

	t.Run("ocaml writes interface", func(t *testing.T) {
		out := filepath.Join(dir, "search.ml")
		require.NoError(t, compiler.GenerateFile(context.Background(), m, out, gen.WithFormat(false)))
		assert.FileExists(t, out)
		assert.FileExists(t, filepath.Join(dir, "search.mli"))
	})

	t.Run("invalid option", func(t *testing.T) {
		out := filepath.Join(dir, "bad.rs")
		err := compiler.GenerateFile(context.Background(), m, out, gen.WithWorkers(0))
		require.Error(t, err)
		assert.ErrorIs(t, err, gen.ErrInvalidConfig)
		assert.NoFileExists(t, out)
	})

	t.Run("unsupported type", func(t *testing.T) {
		out := filepath.Join(dir, "half.go")
		err := compiler.GenerateFile(context.Background(), loadManifest(t, "half.json"), out, gen.WithFormat(false))
		require.Error(t, err)
		assert.True(t, ffigen.IsUnsupportedType(err))
		assert.NoFileExists(t, out)
	})
}

func TestGenerateAll(t *testing.T) {
	m := loadManifest(t, "record.json")
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "points.go"),
		filepath.Join(dir, "points.rs"),
		filepath.Join(dir, "points.ml"),
	}

	require.NoError(t, compiler.GenerateAll(context.Background(), m, paths, gen.WithFormat(false), gen.WithWorkers(2)))
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	assert.FileExists(t, filepath.Join(dir, "points.mli"))

	t.Run("matches single runs", func(t *testing.T) {
		single := filepath.Join(t.TempDir(), "points.rs")
		require.NoError(t, compiler.GenerateFile(context.Background(), m, single, gen.WithFormat(false)))
		want, err := os.ReadFile(single)
		require.NoError(t, err)
		got, err := os.ReadFile(paths[1])
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	})

	t.Run("unknown extension writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		good := filepath.Join(dir, "ok.rs")
		err := compiler.GenerateAll(context.Background(), m, []string{good, filepath.Join(dir, "bad.txt")}, gen.WithFormat(false))
		require.Error(t, err)
		assert.NoFileExists(t, good)
	})

	t.Run("one failing run", func(t *testing.T) {
		dir := t.TempDir()
		err := compiler.GenerateAll(context.Background(), loadManifest(t, "half.json"),
			[]string{filepath.Join(dir, "a.go"), filepath.Join(dir, "a.rs")}, gen.WithFormat(false))
		require.Error(t, err)
		assert.True(t, ffigen.IsUnsupportedType(err))
	})
}
