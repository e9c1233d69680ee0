package validator

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrNotStruct is returned when Struct receives something other than a struct.
	ErrNotStruct = errors.New("validator: must pass a struct or pointer to struct")
	// ErrInvalidSchema is returned when a JSON Schema document cannot be compiled.
	ErrInvalidSchema = errors.New("validator: invalid schema")
	// ErrInvalidBody is returned when a request body is not a JSON object.
	ErrInvalidBody = errors.New("validator: body is not a JSON object")
)

// ValidationError describes one failed rule.
type ValidationError struct {
	Field             string         `json:"field"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"translation_key,omitempty"`
	TranslationValues map[string]any `json:"translation_values,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects failures in the order the rules ran.
type ValidationErrors []ValidationError

// Add appends a failure.
func (e *ValidationErrors) Add(err ValidationError) {
	*e = append(*e, err)
}

// IsEmpty reports whether no rule failed.
func (e ValidationErrors) IsEmpty() bool { return len(e) == 0 }

// Has reports whether field has at least one failure.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Get returns the messages recorded for field.
func (e ValidationErrors) Get(field string) []string {
	var out []string
	for _, err := range e {
		if err.Field == field {
			out = append(out, err.Message)
		}
	}
	return out
}

// Fields returns the failing fields in first-failure order, without duplicates.
func (e ValidationErrors) Fields() []string {
	seen := make(map[string]struct{}, len(e))
	var out []string
	for _, err := range e {
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		out = append(out, err.Field)
	}
	return out
}

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// StatusCode reports 422 so unhandled validation failures render as Unprocessable Entity.
func (e ValidationErrors) StatusCode() int { return http.StatusUnprocessableEntity }

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}

// ExtractValidationErrors returns the ValidationErrors carried by err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return nil
}
