package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the record value types.
// Only String, Int, Bool, Array and Object implement it.
type Value interface {
	recordValue()
}

// String is a string value.
type String string

func (String) recordValue() {}

// Int is an integer value. Always int64, never float64.
type Int int64

func (Int) recordValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) recordValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) recordValue() {}

// Object maps keys to values. Key order is irrelevant; canonical encoding
// sorts keys.
type Object map[string]Value

func (Object) recordValue() {}

// Words converts a word slice into an Array of Int.
func Words(words []uint32) Array {
	arr := make(Array, len(words))
	for i, w := range words {
		arr[i] = Int(w)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// GetString returns the string stored under key.
func (obj Object) GetString(key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return string(s), nil
}

// GetUint32 returns the integer stored under key, range-checked to 32 bits.
func (obj Object) GetUint32(key string) (uint32, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	return toUint32(key, v)
}

// GetBool returns the boolean stored under key. A missing key is false.
func (obj Object) GetBool(key string) (bool, error) {
	v, ok := obj[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", key, v)
	}
	return bool(b), nil
}

// GetWords returns the array of 32-bit words stored under key. A missing key
// is an empty list.
func (obj Object) GetWords(key string) ([]uint32, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	arr, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("field %q: expected array, got %T", key, v)
	}
	out := make([]uint32, len(arr))
	for i, elem := range arr {
		w, err := toUint32(fmt.Sprintf("%s[%d]", key, i), elem)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func toUint32(key string, v Value) (uint32, error) {
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("field %q: expected integer, got %T", key, v)
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("field %q: %d does not fit in 32 bits", key, n)
	}
	return uint32(n), nil
}

// MarshalJSON implements json.Marshaler with canonical key order.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON implements json.Marshaler.
func (arr Array) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// UnmarshalJSON implements json.Unmarshaler for Object. Floats and nulls are
// rejected.
func (obj *Object) UnmarshalJSON(data []byte) error {
	v, err := Unmarshal(data)
	if err != nil {
		return err
	}
	o, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected object, got %T", v)
	}
	*obj = o
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	v, err := Unmarshal(data)
	if err != nil {
		return err
	}
	a, ok := v.(Array)
	if !ok {
		return fmt.Errorf("expected array, got %T", v)
	}
	*arr = a
	return nil
}

// Unmarshal parses JSON into a Value.
// Rejects floats and null: only string, int, bool, array, object allowed.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts decoded JSON or YAML data into a Value.
// Rejects null and floats.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in records")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in records: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", val)
		}
		return Int(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in records: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			rv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = rv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			rv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = rv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a Value back into plain Go data, suitable for YAML
// encoding.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}
