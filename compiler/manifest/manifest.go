// Package manifest models the ABI description written by the compiler next
// to a generated library.
//
// A Manifest is parsed once from JSON, validated, and never mutated
// afterwards. Backends read it in a deterministic order: TypeNames and
// EntryNames return the keys sorted by name.
package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind discriminates the Type union.
type Kind string

const (
	KindArray  Kind = "array"
	KindOpaque Kind = "opaque"
)

// Manifest describes the exported ABI of one compiled library.
type Manifest struct {
	Backend     Variant           `json:"backend"`
	Version     string            `json:"version"`
	EntryPoints map[string]*Entry `json:"entry_points"`
	Types       map[string]*Type  `json:"types"`
}

// TypeNames returns the names of all declared types, sorted.
func (m *Manifest) TypeNames() []string {
	return sortedKeys(m.Types)
}

// EntryNames returns the names of all entry points, sorted.
func (m *Manifest) EntryNames() []string {
	return sortedKeys(m.EntryPoints)
}

// Lookup returns the declared type with the given name.
func (m *Manifest) Lookup(name string) (*Type, bool) {
	t, ok := m.Types[name]
	return t, ok
}

// Type is a tagged union of ArrayType and OpaqueType.
// Exactly one of Array and Opaque is set, according to Kind.
type Type struct {
	Kind   Kind
	Array  *ArrayType
	Opaque *OpaqueType
}

// UnmarshalJSON decodes a type object using its "kind" discriminator.
func (t *Type) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Kind {
	case KindArray:
		a := &ArrayType{}
		if err := json.Unmarshal(data, a); err != nil {
			return err
		}
		*t = Type{Kind: KindArray, Array: a}
	case KindOpaque:
		o := &OpaqueType{}
		if err := json.Unmarshal(data, o); err != nil {
			return err
		}
		*t = Type{Kind: KindOpaque, Opaque: o}
	default:
		return fmt.Errorf("unknown type kind %q", head.Kind)
	}
	return nil
}

// CType returns the C type of the handle (e.g., "struct futhark_i64_1d *").
func (t *Type) CType() string {
	if t.Array != nil {
		return t.Array.CType
	}
	if t.Opaque != nil {
		return t.Opaque.CType
	}
	return ""
}

// ArrayOps names the foreign operations of an array type.
type ArrayOps struct {
	New    string `json:"new"`
	Free   string `json:"free"`
	Values string `json:"values"`
	Shape  string `json:"shape"`
}

// ArrayType is a rank-fixed, homogeneously typed array handle.
type ArrayType struct {
	CType    string   `json:"ctype"`
	Rank     int      `json:"rank"`
	ElemType ElemType `json:"elemtype"`
	Ops      ArrayOps `json:"ops"`
}

// StructName returns the C struct tag of the handle (e.g., "futhark_i64_1d").
func (a *ArrayType) StructName() string {
	return StructName(a.CType)
}

// OpaqueOps names the foreign operations of an opaque type.
type OpaqueOps struct {
	Free    string `json:"free"`
	Store   string `json:"store"`
	Restore string `json:"restore"`
}

// RecordField is one projectable field of a record.
type RecordField struct {
	Name    string `json:"name"`
	Project string `json:"project"`
	Type    string `json:"type"`
}

// Record describes the constructor and fields of a record-shaped opaque type.
type Record struct {
	New    string        `json:"new"`
	Fields []RecordField `json:"fields"`
}

// OpaqueType is a handle with hidden layout, optionally exposing a record.
type OpaqueType struct {
	CType  string    `json:"ctype"`
	Ops    OpaqueOps `json:"ops"`
	Record *Record   `json:"record,omitempty"`
}

// StructName returns the C struct tag of the handle (e.g., "futhark_opaque_tup").
func (o *OpaqueType) StructName() string {
	return StructName(o.CType)
}

// Input is a named entry point parameter.
type Input struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Unique bool   `json:"unique"`
}

// Output is an entry point result.
type Output struct {
	Type   string `json:"type"`
	Unique bool   `json:"unique"`
}

// Entry is one exported callable.
type Entry struct {
	CFun    string   `json:"cfun"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// StructName strips the "struct" keyword and pointer suffix from a C handle
// type, returning the bare struct tag.
func StructName(ctype string) string {
	s := strings.TrimSpace(ctype)
	s = strings.TrimSuffix(s, "*")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "const ")
	s = strings.TrimPrefix(s, "struct")
	return strings.TrimSpace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
