package gen_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ffigen/compiler/gen"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := gen.NewConfig()
		require.NoError(t, err)
		assert.Equal(t, gen.DefaultHeader, cfg.Header)
		assert.True(t, cfg.Format)
		assert.Positive(t, cfg.Workers)
	})

	t.Run("options", func(t *testing.T) {
		cfg, err := gen.NewConfig(
			gen.WithPackage("mylib"),
			gen.WithHeader("// hdr"),
			gen.WithHeaderFile("my.h"),
			gen.WithFormat(false),
			gen.WithWorkers(3),
		)
		require.NoError(t, err)
		assert.Equal(t, "mylib", cfg.Package)
		assert.Equal(t, "// hdr", cfg.Header)
		assert.Equal(t, "my.h", cfg.HeaderFile)
		assert.False(t, cfg.Format)
		assert.Equal(t, 3, cfg.Workers)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := gen.NewConfig(gen.WithPackage("my-lib"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, gen.ErrInvalidConfig))
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("must panics", func(t *testing.T) {
		assert.Panics(t, func() { gen.MustNewConfig(gen.WithWorkers(0)) })
	})
}

func TestApplyAll(t *testing.T) {
	cfg := &gen.Config{}
	err := cfg.ApplyAll(gen.WithPackage(""), gen.WithWorkers(-1), gen.WithFormat(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Package")
	assert.Contains(t, err.Error(), "Workers")
	assert.True(t, cfg.Format)
}

func TestConfigDerived(t *testing.T) {
	cfg := gen.MustNewConfig()
	assert.Equal(t, "mylib", cfg.PackageFor("out/mylib/lib.go"))
	assert.Equal(t, "lib", cfg.PackageFor("lib.go"))
	assert.Equal(t, "lib.h", cfg.HeaderFor("out/mylib/lib.go"))

	cfg = gen.MustNewConfig(gen.WithPackage("p"), gen.WithHeaderFile("x.h"))
	assert.Equal(t, "p", cfg.PackageFor("out/mylib/lib.go"))
	assert.Equal(t, "x.h", cfg.HeaderFor("out/mylib/lib.go"))
}
