// Package gen provides the generation engine shared by every target
// language backend.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	manifest JSON
//	        ↓
//	   manifest.Manifest (validated, immutable)
//	        ↓
//	   Generate (fixed phase order)
//	        ↓
//	   Backend + Registry (per run)
//	        ↓
//	   wrapper source (+ optional secondary artifact)
//
// # Key Types
//
//   - Backend: the phase methods a target language implements
//   - Declarer: optional first pass registering every type name
//   - SecondaryArtifact: optional second output file
//   - Registry: manifest → foreign → wrapper type name mapping
//   - Config: options of one run
//
// # Error Handling
//
// Backend failures are wrapped in a GenerationError naming the phase and
// the type or entry being processed. The cause is kept, so callers match
// the ffigen sentinels with errors.Is:
//
//	err := gen.Generate(ctx, m, backend, "lib.go", cfg)
//	if errors.Is(err, ffigen.ErrUnsupportedType) {
//	    // the manifest uses a type the target cannot express
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithPackage("mylib"),
//	    gen.WithHeaderFile("mylib.h"),
//	    gen.WithFormat(false),
//	)
//
// # Logging
//
// The package logs through a zap logger that is a no-op by default.
// Install one with SetLogger to see phase progress and formatter warnings.
package gen
