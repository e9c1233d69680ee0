package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var engine = sync.OnceValue(func() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
})

// TagFunc reports whether value satisfies a custom tag. param is the text
// after "=" in the tag, e.g. "3" for "multiple_of=3".
type TagFunc func(value reflect.Value, param string) bool

// RegisterTag adds a custom tag usable in struct tags and Tag rules.
// Register tags during initialization, before validating concurrently.
func RegisterTag(name string, fn TagFunc) error {
	return engine().RegisterValidation(name, func(fl playground.FieldLevel) bool {
		return fn(fl.Field(), fl.Param())
	})
}

// Struct validates v using its `validate` struct tags. Failures are reported
// with JSON field names, nested fields joined with dots.
func Struct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ErrNotStruct
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrNotStruct
	}

	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	if verrs := convertTagErrors(err, ""); len(verrs) > 0 {
		return verrs
	}
	return err
}

// Var validates a single value against tag.
func Var(field string, value any, tag string) error {
	err := engine().Var(value, tag)
	if err == nil {
		return nil
	}
	if verrs := convertTagErrors(err, field); len(verrs) > 0 {
		return verrs
	}
	return err
}

func convertTagErrors(err error, field string) ValidationErrors {
	var perrs playground.ValidationErrors
	if !errors.As(err, &perrs) {
		return nil
	}

	out := make(ValidationErrors, 0, len(perrs))
	for _, fe := range perrs {
		name := field
		if ns := fe.Namespace(); ns != "" {
			if _, rest, ok := strings.Cut(ns, "."); ok {
				name = rest
			} else {
				name = ns
			}
		}
		out.Add(ValidationError{
			Field:          name,
			Message:        tagMessage(fe),
			TranslationKey: "validation." + fe.Tag(),
			TranslationValues: map[string]any{
				"field": name,
				"param": fe.Param(),
			},
		})
	}
	return out
}

func tagMessage(fe playground.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("must be %s %s", comparison(fe.Tag()), fe.Param())
	}
	return fmt.Sprintf("failed validation (%s)", fe.Tag())
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return "greater than"
	case "gte":
		return "greater than or equal to"
	case "lt":
		return "less than"
	}
	return "less than or equal to"
}
