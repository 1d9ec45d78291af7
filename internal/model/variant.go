package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Attribute is one (label, value) pair of a variant, e.g. Size=M.
type Attribute struct {
	Label string `json:"label" validate:"required,max=50"`
	Value string `json:"value" validate:"required,max=100"`
}

// VariantKey selects a product variant. Pairs are ordered by the product's label order.
// An empty key addresses the product as a whole.
type VariantKey []Attribute

// Normalize trims labels and values and returns a new key.
func (k VariantKey) Normalize() VariantKey {
	if len(k) == 0 {
		return VariantKey{}
	}
	out := make(VariantKey, len(k))
	for i, a := range k {
		out[i] = Attribute{Label: strings.TrimSpace(a.Label), Value: strings.TrimSpace(a.Value)}
	}
	return out
}

// String is the canonical serialization used to key stock buckets.
func (k VariantKey) String() string {
	if len(k) == 0 {
		return "[]"
	}
	b, _ := json.Marshal([]Attribute(k))
	return string(b)
}

func (k VariantKey) IsEmpty() bool {
	return len(k) == 0
}

func (k VariantKey) Labels() []string {
	labels := make([]string, len(k))
	for i, a := range k {
		labels[i] = a.Label
	}
	return labels
}

// Get returns the value for label.
func (k VariantKey) Get(label string) (string, bool) {
	for _, a := range k {
		if a.Label == label {
			return a.Value, true
		}
	}
	return "", false
}

// Describe renders the key for humans, e.g. "Size: M, Color: Red".
func (k VariantKey) Describe() string {
	parts := make([]string, len(k))
	for i, a := range k {
		parts[i] = a.Label + ": " + a.Value
	}
	return strings.Join(parts, ", ")
}

func (k VariantKey) Value() (driver.Value, error) {
	return k.String(), nil
}

func (k *VariantKey) Scan(src any) error {
	var parsed []Attribute
	if err := scanJSON(src, &parsed); err != nil {
		return fmt.Errorf("scan variant key: %w", err)
	}
	*k = parsed
	return nil
}

// Labels is the ordered set of custom attribute labels a product tracks.
type Labels []string

func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *Labels) Scan(src any) error {
	var parsed []string
	if err := scanJSON(src, &parsed); err != nil {
		return fmt.Errorf("scan labels: %w", err)
	}
	*l = parsed
	return nil
}

// Normalize trims every label.
func (l Labels) Normalize() Labels {
	out := make(Labels, len(l))
	for i, s := range l {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func (l Labels) Equal(other []string) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

func scanJSON(src any, dest any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
