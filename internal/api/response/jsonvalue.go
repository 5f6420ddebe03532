package response

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONValue converts v into its generic JSON form: map[string]any, []any,
// string, bool, json.Number or nil. Structs, typed maps and pointers are
// marshalled first so their json tags decide which keys exist.
func JSONValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string, bool, json.Number:
		return t, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal handler result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode handler result: %w", err)
	}
	return out, nil
}
