package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gavel/internal/ir"
)

// marshalObject converts an IRObject to canonical JSON TEXT for storage.
func marshalObject(obj ir.IRObject) (string, error) {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalObject parses stored JSON TEXT back to an IRObject. Large
// integers survive because IRObject decodes numbers via json.Number.
func unmarshalObject(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return obj, nil
}
