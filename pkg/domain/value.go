package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which member of the Value union is populated.
type ValueKind uint8

const (
	// KindUnknown marks the zero Value: an attribute that was never asserted.
	KindUnknown ValueKind = iota
	// KindBool marks a truth flag such as 有毛发=true.
	KindBool
	// KindCategory marks a categorical string such as 毛发颜色=棕色.
	KindCategory
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Value is the tagged union carried by conditions, conclusions and facts.
// The zero Value is Unknown and never equals a legal bool or category.
type Value struct {
	kind     ValueKind
	flag     bool
	category string
}

// Unknown returns the explicit "never asserted" value.
func Unknown() Value { return Value{} }

// Bool constructs a truth-flag value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Category constructs a categorical value.
func Category(s string) Value { return Value{kind: KindCategory, category: s} }

// Kind reports which member is set.
func (v Value) Kind() ValueKind { return v.kind }

// Known reports whether the value was asserted.
func (v Value) Known() bool { return v.kind != KindUnknown }

// AsBool returns the flag and whether v is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// AsCategory returns the category and whether v is a category.
func (v Value) AsCategory() (string, bool) {
	return v.category, v.kind == KindCategory
}

// Equal compares kind and payload. Bool(true) never equals Category("true").
func (v Value) Equal(other Value) bool {
	return v == other
}

// String renders the payload; categories are returned verbatim.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindCategory:
		return v.category
	default:
		return "<unknown>"
	}
}

// MarshalJSON encodes bools as JSON booleans, categories as strings and Unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.flag)
	case KindCategory:
		return json.Marshal(v.category)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON; numbers and objects are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = Unknown()
		return nil
	case bytes.Equal(trimmed, []byte("true")):
		*v = Bool(true)
		return nil
	case bytes.Equal(trimmed, []byte("false")):
		*v = Bool(false)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("value must be a boolean or string: %w", err)
	}
	*v = Category(s)
	return nil
}
