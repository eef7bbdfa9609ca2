package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Encode returns the little-endian bytes of v, which must hold elements of type t.
func Encode(t Type, v any) ([]byte, error) {
	if err := Check(t, v); err != nil {
		return nil, err
	}
	return binary.Append(nil, binary.LittleEndian, v)
}

// Decode fills dst from the little-endian bytes in b.
//
// dst may be a pointer to a scalar (b must hold exactly one element), a slice
// with room for every element in b, or a pointer to a slice, which is resized.
func Decode(t Type, b []byte, dst any) error {
	if err := Check(t, dst); err != nil {
		return err
	}
	size := t.Size()
	if len(b)%size != 0 {
		return fmt.Errorf("dtype: %d bytes is not a whole number of %s elements", len(b), t)
	}
	n := len(b) / size

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: destination %T is not a pointer or slice", ErrTypeMismatch, dst)
	}
	switch {
	case rv.Kind() == reflect.Slice:
		if rv.Len() < n {
			return fmt.Errorf("dtype: destination holds %d elements, need %d", rv.Len(), n)
		}
		_, err := binary.Decode(b, binary.LittleEndian, rv.Slice(0, n).Interface())
		return err
	case rv.Elem().Kind() == reflect.Slice && rv.Elem().Type() != dimType:
		out := reflect.MakeSlice(rv.Elem().Type(), n, n)
		if _, err := binary.Decode(b, binary.LittleEndian, out.Interface()); err != nil {
			return err
		}
		rv.Elem().Set(out)
		return nil
	default:
		if n != 1 {
			return fmt.Errorf("dtype: scalar destination for %d elements", n)
		}
		_, err := binary.Decode(b, binary.LittleEndian, dst)
		return err
	}
}
