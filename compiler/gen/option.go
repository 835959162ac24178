package gen

import (
	"errors"
	"go/token"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultHeader is the comment placed at the top of every generated file.
const DefaultHeader = "Code generated by ffigen. DO NOT EDIT."

// Config holds the options of one generation run.
type Config struct {
	// Package is the package name of generated Go code. Defaults to the
	// name of the output directory.
	Package string
	// Header is the comment written at the top of generated files.
	Header string
	// HeaderFile is the C header included by generated cgo code. Defaults
	// to the output file name with a ".h" extension.
	HeaderFile string
	// Format runs the backend's formatter after writing.
	Format bool
	// Workers bounds the number of concurrent runs in multi-output mode.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the package name of generated Go code.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package must be a valid identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithHeaderFile sets the C header included by generated cgo code.
func WithHeaderFile(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("HeaderFile", nil, "header file cannot be empty")
		}
		c.HeaderFile = name
		return nil
	}
}

// WithFormat enables or disables the format phase.
func WithFormat(enabled bool) Option {
	return func(c *Config) error {
		c.Format = enabled
		return nil
	}
}

// WithWorkers sets the number of parallel runs in multi-output mode.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PackageFor returns the configured package name, or one derived from the
// output path: its directory name, else its file name.
func (c *Config) PackageFor(output string) string {
	if c.Package != "" {
		return c.Package
	}
	base := filepath.Base(output)
	for _, candidate := range []string{
		filepath.Base(filepath.Dir(output)),
		strings.TrimSuffix(base, filepath.Ext(base)),
	} {
		if name := packageName(candidate); name != "" {
			return name
		}
	}
	return "ffi"
}

// packageName lower-cases s and drops characters not allowed in a package
// name. It returns "" if nothing usable is left.
func packageName(s string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return ""
	}
	return name
}

// HeaderFor returns the configured C header, or one derived from the
// output path.
func (c *Config) HeaderFor(output string) string {
	if c.HeaderFile != "" {
		return c.HeaderFile
	}
	base := filepath.Base(output)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".h"
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:  DefaultHeader,
		Format:  true,
		Workers: runtime.GOMAXPROCS(0),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
