package gen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/ffigen/compiler/manifest"
)

var upper = cases.Upper(language.Und)

// Pascal converts a manifest name (e.g., "binary_search") to PascalCase.
func Pascal(s string) string {
	p := inflect.Camelize(Ident(s))
	if p == "" || !unicode.IsLetter(rune(p[0])) {
		return "X" + p
	}
	return p
}

// Camel converts a manifest name to camelCase.
func Camel(s string) string {
	p := Pascal(s)
	return strings.ToLower(p[:1]) + p[1:]
}

// Snake converts a manifest name to snake_case.
func Snake(s string) string {
	return inflect.Underscore(Ident(s))
}

// Upper returns the upper-cased form of a scalar tag (e.g., "f32" → "F32").
func Upper(s string) string {
	return upper.String(s)
}

// Ident replaces every character that cannot appear in an identifier with
// an underscore and prefixes names starting with a digit.
func Ident(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			if i == 0 {
				b.WriteByte('v')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SafeIdent returns a local identifier for name that does not collide with
// a Go keyword or one of the reserved names.
func SafeIdent(name string, reserved map[string]struct{}) string {
	id := Ident(name)
	_, ok := reserved[id]
	if ok || token.Lookup(id).IsKeyword() {
		return "_" + id
	}
	return id
}

// Names builds a reserved identifier set.
func Names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

// ArrayWrapperName returns the wrapper type name shared by all backends
// for an array type (e.g., "ArrayI64D1").
func ArrayWrapperName(t *manifest.ArrayType) string {
	return fmt.Sprintf("Array%sD%d", Upper(t.ElemType.String()), t.Rank)
}

// OpaqueWrapperName returns the wrapper type name for an opaque type,
// derived from its C struct tag (e.g., "futhark_opaque_point" → "Point").
// Names in reserved are declared by the backend itself; a colliding name
// gets an "Opaque" suffix.
func OpaqueWrapperName(t *manifest.OpaqueType, reserved map[string]struct{}) string {
	name := t.StructName()
	name = strings.TrimPrefix(name, "futhark_opaque_")
	name = strings.TrimPrefix(name, "futhark_")
	name = Pascal(name)
	for {
		if _, ok := reserved[name]; !ok {
			return name
		}
		name += "Opaque"
	}
}

// OpaqueTag returns the suffix used by opaque operations
// (e.g., "futhark_opaque_point" → "point").
func OpaqueTag(t *manifest.OpaqueType) string {
	return strings.TrimPrefix(t.StructName(), "futhark_opaque_")
}
