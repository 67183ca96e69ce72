package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a flat set of named fields. Values are int64, []byte or string;
// backends that keep everything as text hand values back as strings, and the
// typed accessors convert them.
type Document map[string]any

// Int64 returns the integer stored under key.
func (d Document) Int64(key string) (int64, bool) {
	raw, ok := d[key]
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Bytes returns the binary payload stored under key.
func (d Document) Bytes(key string) ([]byte, bool) {
	raw, ok := d[key]
	if !ok || raw == nil {
		return nil, false
	}

	switch v := raw.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	out := make(Document, len(d))
	for key, value := range d {
		if b, ok := value.([]byte); ok {
			value = append([]byte(nil), b...)
		}
		out[key] = value
	}
	return out
}

func encodeField(value any) (string, error) {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported field type %T", value)
	}
}

const (
	fieldTypeInt   = "int"
	fieldTypeBytes = "bytes"
	fieldTypeText  = "text"
)

// typedField keeps the value kind next to the value so text-based backends
// decode integers and binary payloads exactly.
type typedField struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v"`
}

func marshalDocument(doc Document) ([]byte, error) {
	fields := make(map[string]typedField, len(doc))
	for key, value := range doc {
		var (
			kind string
			raw  []byte
			err  error
		)

		switch v := value.(type) {
		case int64:
			kind, raw, err = fieldTypeInt, []byte(strconv.FormatInt(v, 10)), nil
		case int:
			kind, raw, err = fieldTypeInt, []byte(strconv.Itoa(v)), nil
		case int32:
			kind, raw, err = fieldTypeInt, []byte(strconv.FormatInt(int64(v), 10)), nil
		case []byte:
			kind = fieldTypeBytes
			raw, err = json.Marshal(v)
		case string:
			kind = fieldTypeText
			raw, err = json.Marshal(v)
		default:
			err = fmt.Errorf("unsupported field type %T", value)
		}
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", key, err)
		}

		fields[key] = typedField{Type: kind, Value: raw}
	}

	return json.Marshal(fields)
}

func unmarshalDocument(data []byte) (Document, error) {
	var fields map[string]typedField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := make(Document, len(fields))
	for key, field := range fields {
		switch field.Type {
		case fieldTypeInt:
			n, err := strconv.ParseInt(string(field.Value), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decode field %q: %w", key, err)
			}
			doc[key] = n
		case fieldTypeBytes:
			var b []byte
			if err := json.Unmarshal(field.Value, &b); err != nil {
				return nil, fmt.Errorf("decode field %q: %w", key, err)
			}
			if b == nil {
				b = []byte{}
			}
			doc[key] = b
		case fieldTypeText:
			var s string
			if err := json.Unmarshal(field.Value, &s); err != nil {
				return nil, fmt.Errorf("decode field %q: %w", key, err)
			}
			doc[key] = s
		default:
			return nil, fmt.Errorf("decode field %q: unknown type %q", key, field.Type)
		}
	}

	return doc, nil
}
