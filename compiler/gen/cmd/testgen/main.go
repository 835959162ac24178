// testgen is a simple test program that runs every backend over a sample
// manifest.
// Run: go run ./compiler/gen/cmd/testgen [manifest.json]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syssam/ffigen/compiler"
	"github.com/syssam/ffigen/compiler/gen"
	"github.com/syssam/ffigen/compiler/manifest"
)

func main() {
	input := filepath.Join("compiler", "manifest", "testdata", "record.json")
	if len(os.Args) > 1 {
		input = os.Args[1]
	}
	m, err := manifest.ParseFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse manifest: %v\n", err)
		os.Exit(1)
	}

	// Create a temp directory for output
	outDir, err := os.MkdirTemp("", "ffigen-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output directory: %s\n", outDir)

	outputs := []string{
		filepath.Join(outDir, "lib", "lib.go"),
		filepath.Join(outDir, "lib.rs"),
		filepath.Join(outDir, "lib.ml"),
	}
	fmt.Printf("Generating %d entry point(s), %d type(s)...\n", len(m.EntryPoints), len(m.Types))
	if err := compiler.GenerateAll(context.Background(), m, outputs, gen.WithFormat(false)); err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	// List generated files
	fmt.Println("\nGenerated files:")
	err = filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			relPath, _ := filepath.Rel(outDir, path)
			fmt.Printf("  %s (%d bytes)\n", relPath, info.Size())
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list files: %v\n", err)
	}

	fmt.Printf("\nTo inspect generated code: ls -la %s\n", outDir)
	fmt.Println("Done!")
}
