package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is one column of an audit snapshot.
type Value struct {
	Field string
	Value any
}

// Values is a field/value map that keeps field declaration order, both in memory and in its
// JSON encoding.
type Values []Value

// Get returns the value stored for field.
func (v Values) Get(field string) (any, bool) {
	for _, kv := range v {
		if kv.Field == field {
			return kv.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of field in place, or appends it when absent.
func (v Values) Set(field string, value any) Values {
	for i := range v {
		if v[i].Field == field {
			v[i].Value = value
			return v
		}
	}
	return append(v, Value{Field: field, Value: value})
}

func (v Values) Fields() []string {
	out := make([]string, len(v))
	for i, kv := range v {
		out[i] = kv.Field
	}
	return out
}

// Map drops ordering. Intended for callers that only look values up.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v))
	for _, kv := range v {
		out[kv.Field] = kv.Value
	}
	return out
}

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("audit: field %s: %w", kv.Field, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the document's key order. Numbers decode as json.Number so integers
// survive the round trip unchanged.
func (v *Values) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("audit: values must be a JSON object, got %v", tok)
	}
	out := Values{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("audit: unexpected key %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("audit: field %s: %w", key, err)
		}
		out = append(out, Value{Field: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*v = out
	return nil
}
