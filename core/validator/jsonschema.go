package validator

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultSchemaURL = "schema.json"

var printer = message.NewPrinter(language.English)

// JSONSchema validates bodies against a compiled JSON Schema document.
type JSONSchema struct {
	schema *jsonschema.Schema
}

// CompileJSONSchema compiles doc. id names the schema resource and may be empty.
func CompileJSONSchema(id string, doc []byte) (*JSONSchema, error) {
	if id == "" {
		id = defaultSchemaURL
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(id, parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	schema, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return &JSONSchema{schema: schema}, nil
}

// MustCompileJSONSchema is like CompileJSONSchema but panics on error.
func MustCompileJSONSchema(id string, doc []byte) *JSONSchema {
	s, err := CompileJSONSchema(id, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate decodes body and checks it against the schema.
func (s *JSONSchema) Validate(body []byte) (any, error) {
	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return data, s.ValidateValue(data)
}

// ValidateValue checks an already decoded value.
func (s *JSONSchema) ValidateValue(v any) error {
	err := s.schema.Validate(v)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	var out ValidationErrors
	collectSchemaErrors(verr, &out)
	if out.IsEmpty() {
		return err
	}
	return out
}

func collectSchemaErrors(verr *jsonschema.ValidationError, out *ValidationErrors) {
	if len(verr.Causes) == 0 {
		field := strings.Join(verr.InstanceLocation, ".")
		if req, ok := verr.ErrorKind.(*kind.Required); ok {
			for _, missing := range req.Missing {
				name := missing
				if field != "" {
					name = field + "." + missing
				}
				out.Add(ValidationError{
					Field:             name,
					Message:           "field is required",
					TranslationKey:    "validation.required",
					TranslationValues: map[string]any{"field": name},
				})
			}
			return
		}
		keyword := ""
		if path := verr.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[len(path)-1]
		}
		out.Add(ValidationError{
			Field:          field,
			Message:        verr.ErrorKind.LocalizedString(printer),
			TranslationKey: "validation.schema." + keyword,
			TranslationValues: map[string]any{
				"field":      field,
				"schema_url": verr.SchemaURL,
			},
		})
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, out)
	}
}
