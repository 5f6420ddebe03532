package response

import "encoding/json"

var sensitiveFields = map[string]struct{}{
	"password":     {},
	"passwordHash": {},
	"salt":         {},
	"token":        {},
	"refreshToken": {},
	"accessToken":  {},
	"secret":       {},
	"apiKey":       {},
}

// IsSensitive reports whether key is stripped from responses.
func IsSensitive(key string) bool {
	_, ok := sensitiveFields[key]
	return ok
}

// Sanitize removes sensitive keys at every depth. Values that are not JSON
// trees (structs, typed maps, pointers) are converted with JSONValue first.
func Sanitize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, json.Number, float64:
		return v, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			s, err := Sanitize(item)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsSensitive(k) {
				continue
			}
			s, err := Sanitize(val)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	}

	tree, err := JSONValue(v)
	if err != nil {
		return nil, err
	}
	return Sanitize(tree)
}
