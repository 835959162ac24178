package manifest

import "slices"

// ElemType is a scalar type usable as an array element, record field or
// entry point parameter.
type ElemType string

const (
	I8   ElemType = "i8"
	I16  ElemType = "i16"
	I32  ElemType = "i32"
	I64  ElemType = "i64"
	U8   ElemType = "u8"
	U16  ElemType = "u16"
	U32  ElemType = "u32"
	U64  ElemType = "u64"
	F16  ElemType = "f16"
	F32  ElemType = "f32"
	F64  ElemType = "f64"
	Bool ElemType = "bool"
)

// Scalars lists every scalar type in a stable order.
var Scalars = []ElemType{I8, I16, I32, I64, U8, U16, U32, U64, F16, F32, F64, Bool}

// String implements fmt.Stringer.
func (e ElemType) String() string { return string(e) }

// Valid reports whether e is a known scalar type.
func (e ElemType) Valid() bool {
	return slices.Contains(Scalars, e)
}

// IsFloat reports whether e is a floating point type.
func (e ElemType) IsFloat() bool {
	return e == F16 || e == F32 || e == F64
}

// IsScalar reports whether the type name refers to a scalar.
func IsScalar(name string) bool {
	return ElemType(name).Valid()
}

// Variant identifies the compiled flavour of the library. It gates which
// context configuration knobs exist in the foreign API.
type Variant string

const (
	VariantC         Variant = "c"
	VariantMulticore Variant = "multicore"
	VariantISPC      Variant = "ispc"
	VariantOpenCL    Variant = "opencl"
	VariantCUDA      Variant = "cuda"
	VariantHIP       Variant = "hip"
	VariantPython    Variant = "python"
	VariantPyOpenCL  Variant = "pyopencl"
)

// Variants lists every known variant.
var Variants = []Variant{
	VariantC, VariantMulticore, VariantISPC, VariantOpenCL,
	VariantCUDA, VariantHIP, VariantPython, VariantPyOpenCL,
}

// ParseVariant returns the variant with the given name.
func ParseVariant(name string) (Variant, bool) {
	v := Variant(name)
	return v, slices.Contains(Variants, v)
}

// String implements fmt.Stringer.
func (v Variant) String() string { return string(v) }

// IsMulticore reports whether the variant runs on a CPU thread pool and
// accepts a thread count.
func (v Variant) IsMulticore() bool {
	return v == VariantMulticore || v == VariantISPC
}

// IsGPU reports whether the variant runs on a device and accepts a device
// selector.
func (v Variant) IsGPU() bool {
	return v == VariantOpenCL || v == VariantCUDA || v == VariantHIP
}

// IsPython reports whether the variant emits Python instead of a C library.
func (v Variant) IsPython() bool {
	return v == VariantPython || v == VariantPyOpenCL
}

// RequiredLibs returns the native libraries a binary must link against to
// use a library compiled with this variant.
func (v Variant) RequiredLibs() []string {
	switch v {
	case VariantC:
		return []string{"m"}
	case VariantMulticore, VariantISPC:
		return []string{"pthread", "m"}
	case VariantOpenCL:
		return []string{"OpenCL", "m"}
	case VariantCUDA:
		return []string{"cuda", "cudart", "nvrtc", "m"}
	case VariantHIP:
		return []string{"hiprtc", "amdhip64", "m"}
	default:
		return nil
	}
}
