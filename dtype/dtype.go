// Package dtype defines the element types that can be stored in arrays and
// attributes, and converts typed Go values to and from their little-endian
// byte representation.
package dtype

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/splash/grid"
)

// ErrTypeMismatch is returned when a Go value does not match the element type.
var ErrTypeMismatch = errors.New("dtype: type mismatch")

// ErrUnknownType is returned for an unsupported type name.
var ErrUnknownType = errors.New("dtype: unknown type")

// Type identifies the element type of an array or attribute.
type Type uint8

const (
	Invalid Type = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	// Dim is a grid.Dimensions value (three uint64 extents).
	Dim
)

var typeNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	Dim:     "dim",
}

var typeSizes = [...]int{
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8,
	Float32: 4, Float64: 8,
	Bool: 1,
	Dim:  24,
}

var goTypes = map[reflect.Type]Type{
	reflect.TypeFor[int8]():            Int8,
	reflect.TypeFor[int16]():           Int16,
	reflect.TypeFor[int32]():           Int32,
	reflect.TypeFor[int64]():           Int64,
	reflect.TypeFor[uint8]():           Uint8,
	reflect.TypeFor[uint16]():          Uint16,
	reflect.TypeFor[uint32]():          Uint32,
	reflect.TypeFor[uint64]():          Uint64,
	reflect.TypeFor[float32]():         Float32,
	reflect.TypeFor[float64]():         Float64,
	reflect.TypeFor[bool]():            Bool,
	reflect.TypeFor[grid.Dimensions](): Dim,
}

var dimType = reflect.TypeFor[grid.Dimensions]()

// Types returns every valid element type.
func Types() []Type {
	return []Type{Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64, Bool, Dim}
}

// Valid reports whether t is a known element type.
func (t Type) Valid() bool {
	return t > Invalid && t <= Dim
}

// Size returns the size of one element in bytes (0 for Invalid).
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeSizes[t]
}

func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return fmt.Sprintf("type(%d)", t)
	}
	return typeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	p, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// ParseType returns the type with the given name.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if i > 0 && n == name {
			return Type(i), nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// shapeOf inspects v and returns its element type, element count and whether
// it is a slice (as opposed to a scalar or pointer to scalar).
func shapeOf(v any) (Type, int, bool) {
	if v == nil {
		return Invalid, 0, false
	}
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	if rt.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Invalid, 0, false
		}
		rv = rv.Elem()
		rt = rt.Elem()
	}
	if rt == dimType {
		return Dim, 1, false
	}
	if rt.Kind() == reflect.Slice {
		t, ok := goTypes[rt.Elem()]
		if !ok {
			return Invalid, 0, false
		}
		return t, rv.Len(), true
	}
	t, ok := goTypes[rt]
	if !ok {
		return Invalid, 0, false
	}
	return t, 1, false
}

// TypeOf returns the element type of a scalar, pointer to scalar, or slice.
func TypeOf(v any) (Type, bool) {
	t, _, _ := shapeOf(v)
	return t, t.Valid()
}

// Len returns the number of elements held by v.
func Len(v any) (int, error) {
	t, n, _ := shapeOf(v)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: unsupported Go type %T", ErrTypeMismatch, v)
	}
	return n, nil
}

// Check returns ErrTypeMismatch unless v holds elements of type t.
func Check(t Type, v any) error {
	got, _, _ := shapeOf(v)
	if !got.Valid() {
		return fmt.Errorf("%w: unsupported Go type %T", ErrTypeMismatch, v)
	}
	if got != t {
		return fmt.Errorf("%w: %T holds %s, want %s", ErrTypeMismatch, v, got, t)
	}
	return nil
}
