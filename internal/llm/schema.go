package llm

import (
	"fmt"
	"strings"
)

// Kind is the JSON type expected for a schema field.
type Kind int

const (
	String Kind = iota
	Integer
	Number
	StringList
	ObjectList
)

// Field is one entry in a response data contract. The same definition
// drives both the instruction sent to the model and the validation of its
// response.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Description string
	// Min and Max bound numeric fields when both are non-nil.
	Min, Max *float64
}

// Schema is an explicit data contract for a structured response.
type Schema struct {
	Name   string
	Fields []Field
}

// Instruction renders the contract as a model-facing directive.
func (s Schema) Instruction() string {
	var b strings.Builder
	b.WriteString("You must respond with ONLY a valid JSON object, no text before or after it, matching this shape:\n{\n")
	for i, f := range s.Fields {
		fmt.Fprintf(&b, "  %q: %s", f.Name, f.Kind.example())
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		if f.Description != "" {
			fmt.Fprintf(&b, "  // %s", f.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func (k Kind) example() string {
	switch k {
	case String:
		return `"string"`
	case Integer, Number:
		return "0"
	case StringList:
		return `["string", ...]`
	case ObjectList:
		return `[{...}, ...]`
	default:
		return "null"
	}
}

// Validate checks a decoded response against the contract. It returns the
// first violation found, or nil.
func (s Schema) Validate(m map[string]any) error {
	for _, f := range s.Fields {
		v, ok := m[f.Name]
		if !ok || v == nil {
			if f.Required {
				return fmt.Errorf("%s: missing required field %q", s.Name, f.Name)
			}
			continue
		}
		if err := f.check(v); err != nil {
			return fmt.Errorf("%s: field %q: %w", s.Name, f.Name, err)
		}
	}
	return nil
}

func (f Field) check(v any) error {
	switch f.Kind {
	case String:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	case Integer, Number:
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", v)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Errorf("value %v below minimum %v", n, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Errorf("value %v above maximum %v", n, *f.Max)
		}
	case StringList:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", v)
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("expected array of strings, found %T", item)
			}
		}
	case ObjectList:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", v)
		}
		for _, item := range items {
			if _, ok := item.(map[string]any); !ok {
				return fmt.Errorf("expected array of objects, found %T", item)
			}
		}
	}
	return nil
}

// GetString reads a string field from a decoded response, or returns def.
func GetString(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

// GetStringList reads a string-array field from a decoded response.
func GetStringList(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetObjectList reads an object-array field from a decoded response.
func GetObjectList(m map[string]any, key string) []map[string]any {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if o, ok := item.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}
