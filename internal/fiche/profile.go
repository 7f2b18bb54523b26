// Package fiche holds the structured student profile: a JSON document built
// from an empty template and filled by merging extraction patches.
package fiche

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Profile is the cumulative student record. Values follow encoding/json
// conventions: objects are map[string]any, arrays []any, numbers float64.
type Profile map[string]any

// New returns a profile instantiated from template. The template is copied.
func New(template map[string]any) Profile {
	if template == nil {
		return Profile{}
	}
	return Profile(deepCopy(template).(map[string]any))
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return Profile(deepCopy(map[string]any(p)).(map[string]any))
}

// Lookup walks path through nested objects and returns the value found.
func (p Profile) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(p)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the trimmed string at path, or "".
func (p Profile) String(path ...string) string {
	v, _ := p.Lookup(path...)
	return asString(v)
}

// Strings returns the non-empty strings of the array at path.
func (p Profile) Strings(path ...string) []string {
	v, _ := p.Lookup(path...)
	return asStrings(v)
}

// Int returns the integer at path. Numbers encoded as strings are accepted.
func (p Profile) Int(path ...string) (int, bool) {
	v, _ := p.Lookup(path...)
	return asInt(v)
}

// Objects returns the object elements of the array at path.
func (p Profile) Objects(path ...string) []map[string]any {
	v, _ := p.Lookup(path...)
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, el := range arr {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// JSON renders the profile, indented.
func (p Profile) JSON() ([]byte, error) {
	return json.MarshalIndent(map[string]any(p), "", "  ")
}

// Section returns the JSON text of the named top-level sections, used to show
// the model what it may fill and what is already known.
func (p Profile) Section(keys ...string) string {
	sub := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := p[k]; ok {
			sub[k] = v
		}
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if s := asString(el); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, el := range t {
			if s := strings.TrimSpace(el); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case Profile:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return t
	}
}
