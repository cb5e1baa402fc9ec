package xjson

import (
	"bytes"
	"encoding/json"
)

func MustMarshalString(v any) string {
	return string(MustMarshal(v))
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}

func MustTo[T any](v []byte) T {
	t, err := To[T](v)
	if err != nil {
		panic(err)
	}

	return t
}

func To[T any](v []byte) (T, error) {
	var t T

	err := json.Unmarshal(v, &t)
	if err != nil {
		return t, err
	}

	return t, nil
}

// Marshal accepts a value that may already be JSON text (string or
// []byte/json.RawMessage) and passes it through unchanged, or marshals any
// other Go value normally. Useful at boundaries that accept either a raw
// JSON document or a struct describing one (e.g. grammar rule bodies built
// up from literal schema strings and ad-hoc Go values alike).
func Marshal(v any) (json.RawMessage, error) {
	switch x := v.(type) {
	case json.RawMessage:
		return x, nil
	case []byte:
		return json.RawMessage(x), nil
	case string:
		return json.RawMessage(x), nil
	default:
		b, err := json.Marshal(v)
		return json.RawMessage(b), err
	}
}

func IsNull(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(v, NullJSON)
}
