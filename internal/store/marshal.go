package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/spvfuzz/internal/record"
)

// marshalObject converts a record object to canonical JSON TEXT for storage.
func marshalObject(what string, obj record.Object) (string, error) {
	if obj == nil {
		obj = record.Object{}
	}
	data, err := record.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT. record.Object.UnmarshalJSON
// keeps integers exact and rejects floats.
func unmarshalObject(what, data string) (record.Object, error) {
	if data == "" || data == "{}" {
		return record.Object{}, nil
	}
	var obj record.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return obj, nil
}
