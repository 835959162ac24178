// Package ffigen generates foreign-function-interface wrappers for compiled
// Futhark-style libraries.
//
// The compiler of such a library writes a JSON manifest describing the
// exported ABI: entry points, array handle types and opaque record types.
// ffigen reads that manifest and emits wrapper source in a target language
// that owns every foreign handle, checks array shapes, and turns non-zero
// status codes into typed errors.
//
// # Packages
//
//   - compiler/manifest: the manifest data model (parse and validate)
//   - compiler/gen: the type registry and the generation driver
//   - compiler/gen/golang: Go/cgo wrappers built with jennifer
//   - compiler/gen/rust: Rust wrappers rendered from templates
//   - compiler/gen/ocaml: OCaml ctypes wrappers plus an .mli interface
//   - compiler/futhark: runs the external compiler
//   - compiler/load: turns a source or manifest path into a manifest
//   - compiler: backend selection and multi-target runs
//   - internal/cli: the ffigen command (cmd/ffigen)
//
// # Usage
//
//	m, err := manifest.ParseFile("lib.json")
//	if err != nil {
//	    return err
//	}
//	err = compiler.GenerateFile(ctx, m, "lib/lib.go", gen.WithPackage("lib"))
//
// # Error Handling
//
// Generation failures unwind with one of the sentinel errors in this
// package: ErrManifestParse, ErrUnsupportedType, ErrIO or
// ErrCompilationFailed. Use errors.Is or the IsXxx helpers to inspect them.
package ffigen
