package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule is a bound check together with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs rules in order and collects every failure.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check != nil && !r.Check() {
			errs.Add(r.Error)
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// FieldRule binds a check to the value of a named field. value is nil when
// the field is absent; every rule except Required passes on absent fields.
type FieldRule func(field string, value any) Rule

var pass = Rule{Check: func() bool { return true }}

func fail(field, message, key string, values map[string]any) Rule {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return Rule{
		Check: func() bool { return false },
		Error: ValidationError{
			Field:             field,
			Message:           message,
			TranslationKey:    key,
			TranslationValues: values,
		},
	}
}

func check(ok bool, field, message, key string, values map[string]any) Rule {
	if ok {
		return pass
	}
	return fail(field, message, key, values)
}

// Required fails on absent, null, blank-string and empty collection values.
func Required() FieldRule {
	return func(field string, value any) Rule {
		return check(!isEmpty(value), field, "field is required", "validation.required", nil)
	}
}

// String requires a string value.
func String() FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		_, ok := value.(string)
		return check(ok, field, "must be a string", "validation.string", nil)
	}
}

// Number requires a numeric value.
func Number() FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		_, ok := toFloat(value)
		return check(ok, field, "must be a number", "validation.number", nil)
	}
}

// Bool requires a boolean value.
func Bool() FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		_, ok := value.(bool)
		return check(ok, field, "must be a boolean", "validation.bool", nil)
	}
}

// MinLength requires at least n characters, or n items for collections.
func MinLength(n int) FieldRule {
	return func(field string, value any) Rule {
		l, ok := length(value)
		if value == nil || !ok {
			return pass
		}
		return check(l >= n, field, fmt.Sprintf("must be at least %d characters long", n),
			"validation.min_length", map[string]any{"min": n})
	}
}

// MaxLength allows at most n characters, or n items for collections.
func MaxLength(n int) FieldRule {
	return func(field string, value any) Rule {
		l, ok := length(value)
		if value == nil || !ok {
			return pass
		}
		return check(l <= n, field, fmt.Sprintf("must be at most %d characters long", n),
			"validation.max_length", map[string]any{"max": n})
	}
}

// Min requires a number greater than or equal to n.
func Min(n float64) FieldRule {
	return func(field string, value any) Rule {
		f, ok := toFloat(value)
		if !ok {
			return pass
		}
		return check(f >= n, field, fmt.Sprintf("must be at least %v", n),
			"validation.min", map[string]any{"min": n})
	}
}

// Max requires a number less than or equal to n.
func Max(n float64) FieldRule {
	return func(field string, value any) Rule {
		f, ok := toFloat(value)
		if !ok {
			return pass
		}
		return check(f <= n, field, fmt.Sprintf("must be at most %v", n),
			"validation.max", map[string]any{"max": n})
	}
}

// OneOf requires the value to equal one of allowed. Numbers compare by value.
func OneOf(allowed ...any) FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		ok := slices.ContainsFunc(allowed, func(a any) bool { return equal(a, value) })
		parts := make([]string, len(allowed))
		for i, a := range allowed {
			parts[i] = fmt.Sprint(a)
		}
		return check(ok, field, fmt.Sprintf("must be one of [%s]", strings.Join(parts, ", ")),
			"validation.one_of", map[string]any{"values": allowed})
	}
}

// Pattern requires a string matching expr. It panics when expr does not compile.
func Pattern(expr string) FieldRule {
	re := regexp.MustCompile(expr)
	return func(field string, value any) Rule {
		s, ok := value.(string)
		if !ok {
			return pass
		}
		return check(re.MatchString(s), field, "has an invalid format",
			"validation.pattern", map[string]any{"pattern": expr})
	}
}

// Custom reports message when fn returns false for a present value.
func Custom(fn func(value any) bool, message string) FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		return check(fn(value), field, message, "validation.custom", nil)
	}
}

// Tag checks a present value against go-playground/validator tags such as
// "email", "uuid4" or "url,max=200".
func Tag(tag string) FieldRule {
	return func(field string, value any) Rule {
		if value == nil {
			return pass
		}
		err := engine().Var(value, tag)
		if err == nil {
			return pass
		}
		verrs := convertTagErrors(err, field)
		if len(verrs) == 0 {
			return fail(field, err.Error(), "validation.tag", map[string]any{"tag": tag})
		}
		first := verrs[0]
		first.Field = field
		return Rule{Check: func() bool { return false }, Error: first}
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func length(value any) (int, bool) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func equal(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if aNum != bNum {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
