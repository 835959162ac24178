package ffigen

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for generation-time failures.
var (
	// ErrCompilationFailed is returned when the external compiler exits with
	// a non-zero status.
	ErrCompilationFailed = errors.New("ffigen: compilation failed")

	// ErrManifestParse is returned when a manifest is malformed or misses a
	// required field.
	ErrManifestParse = errors.New("ffigen: invalid manifest")

	// ErrIO is returned when an output artifact cannot be created or written.
	ErrIO = errors.New("ffigen: i/o failure")

	// ErrUnsupportedType is returned when a manifest type has no
	// representation in the selected target language.
	ErrUnsupportedType = errors.New("ffigen: unsupported type")
)

// ManifestError represents a manifest that could not be parsed or validated.
type ManifestError struct {
	Path    string // Source file, if known
	Field   string // Offending field path (e.g., "types.[]i64.rank")
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ManifestError) Error() string {
	var b strings.Builder
	b.WriteString("ffigen: invalid manifest")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Field != "" {
		b.WriteString(" at ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrManifestParse.
func (e *ManifestError) Is(target error) bool {
	return target == ErrManifestParse
}

// NewManifestError returns a new ManifestError.
func NewManifestError(field, message string, cause error) *ManifestError {
	return &ManifestError{Field: field, Message: message, Cause: cause}
}

// IsManifestError returns true if the error is a ManifestError.
func IsManifestError(err error) bool {
	if err == nil {
		return false
	}
	var e *ManifestError
	return errors.As(err, &e) || errors.Is(err, ErrManifestParse)
}

// UnsupportedTypeError reports a manifest type that a backend cannot express.
type UnsupportedTypeError struct {
	Backend string // Target language backend (e.g., "go")
	Type    string // Manifest type name (e.g., "f16")
	Context string // Where the type was used (e.g., "array []f16")
}

// Error returns the error string.
func (e *UnsupportedTypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ffigen: unsupported type %q", e.Type)
	if e.Backend != "" {
		fmt.Fprintf(&b, " for %s backend", e.Backend)
	}
	if e.Context != "" {
		b.WriteString(" (")
		b.WriteString(e.Context)
		b.WriteString(")")
	}
	return b.String()
}

// Is reports whether the target matches ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// NewUnsupportedTypeError returns a new UnsupportedTypeError.
func NewUnsupportedTypeError(backend, typ, context string) *UnsupportedTypeError {
	return &UnsupportedTypeError{Backend: backend, Type: typ, Context: context}
}

// IsUnsupportedType returns true if the error is an UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedType)
}

// IOError wraps a failure to create, write or close an output artifact.
type IOError struct {
	Op   string // "create", "write", "close", "read"
	Path string
	Err  error
}

// Error returns the error string.
func (e *IOError) Error() string {
	return fmt.Sprintf("ffigen: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError returns a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError returns true if the error is an IOError.
func IsIOError(err error) bool {
	if err == nil {
		return false
	}
	var e *IOError
	return errors.As(err, &e) || errors.Is(err, ErrIO)
}

// CompilationError reports a failed run of the external compiler.
type CompilationError struct {
	Command  string // Executable that was run
	Source   string // Source file passed to the compiler
	ExitCode int    // -1 if the process could not be started
	Err      error
}

// Error returns the error string.
func (e *CompilationError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("ffigen: compiling %s with %s: exit status %d", e.Source, e.Command, e.ExitCode)
	}
	return fmt.Sprintf("ffigen: compiling %s with %s: %v", e.Source, e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompilationError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrCompilationFailed.
func (e *CompilationError) Is(target error) bool {
	return target == ErrCompilationFailed
}

// IsCompilationError returns true if the error is a CompilationError.
func IsCompilationError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompilationError
	return errors.As(err, &e) || errors.Is(err, ErrCompilationFailed)
}
