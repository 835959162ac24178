package gen

import (
	"github.com/syssam/ffigen"
	"github.com/syssam/ffigen/compiler/manifest"
)

// Registry maps manifest type names to foreign ABI type names, and foreign
// names to wrapper type names in the target language.
//
// A Registry belongs to exactly one backend instance and one generation
// run. An entry registered with an empty name marks a type the target
// cannot express; the checked lookups report it as an
// *ffigen.UnsupportedTypeError.
type Registry struct {
	backend string
	foreign map[string]string
	wrapper map[string]string
}

// NewRegistry returns an empty registry for the named backend.
func NewRegistry(backend string) *Registry {
	return &Registry{
		backend: backend,
		foreign: make(map[string]string),
		wrapper: make(map[string]string),
	}
}

// Register maps a manifest type name to its foreign name.
func (r *Registry) Register(name, foreign string) {
	r.foreign[name] = foreign
}

// RegisterWrapper maps a foreign type name to its wrapper name.
func (r *Registry) RegisterWrapper(foreign, wrapper string) {
	r.wrapper[foreign] = wrapper
}

// RegisterUnsupported marks a manifest type as having no representation.
func (r *Registry) RegisterUnsupported(name string) {
	r.foreign[name] = ""
}

// Scalar is the foreign and wrapper name of one scalar type.
// An empty Wrapper means the wrapper uses the foreign name.
type Scalar struct {
	Foreign string
	Wrapper string
}

// RegisterScalars seeds the registry with a scalar table. Scalars missing
// from the table are registered as unsupported.
func (r *Registry) RegisterScalars(table map[manifest.ElemType]Scalar) {
	for _, s := range manifest.Scalars {
		m, ok := table[s]
		if !ok || m.Foreign == "" {
			r.RegisterUnsupported(s.String())
			continue
		}
		r.Register(s.String(), m.Foreign)
		if m.Wrapper != "" {
			r.RegisterWrapper(m.Foreign, m.Wrapper)
		}
	}
}

// Resolve returns the foreign name registered for name, or name itself.
// It does not report unsupported types; use Foreign for that.
func (r *Registry) Resolve(name string) string {
	if f, ok := r.foreign[name]; ok {
		return f
	}
	return name
}

// Registered reports whether name has a foreign mapping, including an
// unsupported one.
func (r *Registry) Registered(name string) bool {
	_, ok := r.foreign[name]
	return ok
}

// Foreign returns the foreign name of a manifest type.
func (r *Registry) Foreign(name string) (string, error) {
	f, ok := r.foreign[name]
	switch {
	case !ok:
		return name, nil
	case f == "":
		return "", ffigen.NewUnsupportedTypeError(r.backend, name, "")
	default:
		return f, nil
	}
}

// Wrapper returns the wrapper name of a manifest type, following the
// manifest → foreign → wrapper chain.
func (r *Registry) Wrapper(name string) (string, error) {
	f, err := r.Foreign(name)
	if err != nil {
		return "", err
	}
	w, ok := r.wrapper[f]
	switch {
	case !ok:
		return f, nil
	case w == "":
		return "", ffigen.NewUnsupportedTypeError(r.backend, name, "")
	default:
		return w, nil
	}
}

// Check returns an *ffigen.UnsupportedTypeError naming usage if name is
// registered as unsupported.
func (r *Registry) Check(name, usage string) error {
	if _, err := r.Foreign(name); err != nil {
		return ffigen.NewUnsupportedTypeError(r.backend, name, usage)
	}
	return nil
}
