package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BodyValidator validates a raw request body and returns the decoded value.
type BodyValidator interface {
	Validate(body []byte) (any, error)
}

type fieldSpec struct {
	name  string
	rules []FieldRule
}

// Schema is an ordered list of fields and the rules that apply to them.
// Fields are checked in declaration order and rules in the order given.
// A Schema is immutable once built and safe for concurrent use.
type Schema struct {
	fields []fieldSpec
	strict bool
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// Field adds rules for name. Dotted names reach into nested objects, e.g. "address.city".
func (s *Schema) Field(name string, rules ...FieldRule) *Schema {
	s.fields = append(s.fields, fieldSpec{name: name, rules: rules})
	return s
}

// Strict rejects top-level keys the schema does not declare.
func (s *Schema) Strict() *Schema {
	s.strict = true
	return s
}

// Fields returns the declared field names in order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.name
	}
	return out
}

// ValidateMap checks data and returns ValidationErrors with every failure.
func (s *Schema) ValidateMap(data map[string]any) error {
	var rules []Rule
	for _, f := range s.fields {
		value := lookup(data, f.name)
		for _, fr := range f.rules {
			rules = append(rules, fr(f.name, value))
		}
	}

	err := Apply(rules...)
	if !s.strict {
		return err
	}

	verrs := ExtractValidationErrors(err)
	declared := make(map[string]struct{}, len(s.fields))
	for _, f := range s.fields {
		top, _, _ := strings.Cut(f.name, ".")
		declared[top] = struct{}{}
	}
	for key := range data {
		if _, ok := declared[key]; !ok {
			verrs.Add(ValidationError{
				Field:             key,
				Message:           "unknown field",
				TranslationKey:    "validation.unknown_field",
				TranslationValues: map[string]any{"field": key},
			})
		}
	}
	if verrs.IsEmpty() {
		return nil
	}
	return verrs
}

// Validate decodes body as a JSON object and checks it. The decoded map is
// returned even when validation fails.
func (s *Schema) Validate(body []byte) (any, error) {
	data, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	return data, s.ValidateMap(data)
}

func decodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if data == nil {
		return nil, ErrInvalidBody
	}
	return data, nil
}

func lookup(data map[string]any, path string) any {
	var cur any = data
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}
