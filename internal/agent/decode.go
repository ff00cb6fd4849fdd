package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DiscriminatorKey is the field whose value selects the reply variant.
const DiscriminatorKey = "result"

// Fields is a decoded JSON object with its values left raw.
type Fields map[string]json.RawMessage

// DecodeObject parses text as a JSON object and returns its discriminator
// and fields. Unknown fields are kept and ignored by the callers.
func DecodeObject(text string) (string, Fields, error) {
	var fields Fields
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &fields); err != nil {
		return "", nil, fmt.Errorf("decode reply: %w", err)
	}
	if fields == nil {
		return "", nil, errors.New("reply is not a JSON object")
	}
	tag, err := fields.String(DiscriminatorKey)
	if err != nil {
		return "", nil, err
	}
	return tag, fields, nil
}

// Has reports whether key is present with a non-null value.
func (f Fields) Has(key string) bool {
	raw, ok := f[key]
	return ok && !isNull(raw)
}

// String decodes a required string field.
func (f Fields) String(key string) (string, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("missing required field %q", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

// Decode unmarshals a required field into v.
func (f Fields) Decode(key string, v any) error {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return fmt.Errorf("missing required field %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// UnknownVariantError reports a discriminator value the agent does not handle.
type UnknownVariantError struct {
	Tag string
}

// Error implements error.
func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown reply variant %q", e.Tag)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
