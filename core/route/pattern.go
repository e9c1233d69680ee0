package route

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const defaultConstraint = `[^/]+`

// converters maps constraint aliases to their expressions.
var converters = map[string]string{
	"int":   `[0-9]+`,
	"float": `[0-9]+(?:\.[0-9]+)?`,
	"str":   defaultConstraint,
	"path":  `.+`,
	"uuid":  `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"slug":  `[a-zA-Z0-9_-]+`,
}

// segment is a piece of a parameterized template: either literal text or a parameter.
type segment struct {
	text  string
	param string
}

// Pattern is a compiled path template. It is immutable and safe for concurrent use.
type Pattern struct {
	raw      string
	kind     Kind
	re       *regexp.Regexp
	params   []string
	segments []segment
}

// Compile turns a path template into a Pattern.
func Compile(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, ErrEmptyPattern
	}

	switch {
	case strings.HasPrefix(raw, "^") || strings.HasSuffix(raw, "$"):
		return compileRegex(raw)
	case strings.Contains(raw, "*"):
		return compileWildcard(raw)
	default:
		return compileTemplate(raw)
	}
}

// MustCompile is like Compile but panics on error.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns the template the pattern was compiled from.
func (p *Pattern) Raw() string { return p.raw }

// Kind returns the template kind.
func (p *Pattern) Kind() Kind { return p.kind }

// Params returns the parameter names in template order.
func (p *Pattern) Params() []string { return slices.Clone(p.params) }

// Match reports whether path matches the whole pattern and returns the captured parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	if p.kind == Literal {
		return nil, path == p.raw
	}

	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	if len(p.params) == 0 {
		return nil, true
	}

	params := make(map[string]string, len(p.params))
	for i, name := range p.re.SubexpNames() {
		if name == "" || i >= len(m) {
			continue
		}
		if _, seen := params[name]; !seen {
			params[name] = m[i]
		}
	}
	return params, true
}

// Build produces a concrete path by substituting values for the template's
// parameters. The keys of values must be exactly the pattern's parameter set.
func (p *Pattern) Build(values map[string]string) (string, error) {
	switch p.kind {
	case Wildcard, RawRegex:
		return "", fmt.Errorf("%w: %q is a %s pattern", ErrNotReversible, p.raw, p.kind)
	}

	var missing, extra []string
	for _, name := range p.params {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	for key := range values {
		if !slices.Contains(p.params, key) {
			extra = append(extra, key)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		slices.Sort(extra)
		return "", fmt.Errorf("%w %q: missing %v, extra %v", ErrParamMismatch, p.raw, missing, extra)
	}

	if p.kind == Literal {
		return p.raw, nil
	}

	var b strings.Builder
	for _, seg := range p.segments {
		if seg.param != "" {
			b.WriteString(values[seg.param])
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String(), nil
}

func (p *Pattern) String() string { return p.raw }

func compileRegex(raw string) (*Pattern, error) {
	expr := raw
	if !strings.HasPrefix(expr, "^") {
		expr = "^" + expr
	}
	if !strings.HasSuffix(expr, "$") {
		expr += "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidRegexp, raw, err)
	}

	var params []string
	for _, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if slices.Contains(params, name) {
			return nil, fmt.Errorf("%w %q in %q", ErrDuplicateParam, name, raw)
		}
		params = append(params, name)
	}

	return &Pattern{raw: raw, kind: RawRegex, re: re, params: params}, nil
}

func compileWildcard(raw string) (*Pattern, error) {
	parts := strings.Split(raw, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}

	re, err := regexp.Compile("^" + strings.Join(parts, ".*?") + "$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidRegexp, raw, err)
	}
	return &Pattern{raw: raw, kind: Wildcard, re: re}, nil
}

func compileTemplate(raw string) (*Pattern, error) {
	segments, err := scan(raw)
	if err != nil {
		return nil, err
	}

	var (
		params []string
		expr   strings.Builder
	)
	expr.WriteByte('^')
	for _, seg := range segments {
		if seg.param == "" {
			expr.WriteString(regexp.QuoteMeta(seg.text))
			continue
		}
		if slices.Contains(params, seg.param) {
			return nil, fmt.Errorf("%w %q in %q", ErrDuplicateParam, seg.param, raw)
		}
		params = append(params, seg.param)
		fmt.Fprintf(&expr, "(?P<%s>%s)", seg.param, seg.text)
	}
	expr.WriteByte('$')

	if len(params) == 0 {
		return &Pattern{raw: raw, kind: Literal}, nil
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidRegexp, raw, err)
	}
	return &Pattern{raw: raw, kind: Parameterized, re: re, params: params, segments: segments}, nil
}

// scan splits a template into literal and parameter segments. For parameter
// segments text holds the constraint expression.
func scan(raw string) ([]segment, error) {
	var (
		segments []segment
		start    int
	)

	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '}':
			return nil, fmt.Errorf("%w in %q at %d", ErrParamDelimiter, raw, i)
		case '{':
		default:
			continue
		}

		end, ok := closingBrace(raw, i)
		if !ok {
			return nil, fmt.Errorf("%w in %q at %d", ErrParamDelimiter, raw, i)
		}

		if i > start {
			segments = append(segments, segment{text: raw[start:i]})
		}

		name, constraint, _ := strings.Cut(raw[i+1:end], ":")
		if !validName(name) {
			return nil, fmt.Errorf("%w %q in %q", ErrInvalidParamName, name, raw)
		}
		if alias, ok := converters[constraint]; ok {
			constraint = alias
		} else if constraint == "" {
			constraint = defaultConstraint
		}
		segments = append(segments, segment{text: constraint, param: name})

		i = end
		start = end + 1
	}

	if start < len(raw) {
		segments = append(segments, segment{text: raw[start:]})
	}
	return segments, nil
}

// closingBrace returns the index of the brace closing the one at open,
// allowing balanced braces inside constraints such as {code:[0-9]{3}}.
func closingBrace(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Join prefixes a template. Regex templates get the prefix quoted so it matches literally.
// A template of "/" joined to a non-empty prefix yields the prefix itself.
func Join(prefix, raw string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return raw
	}

	switch {
	case strings.HasPrefix(raw, "^"):
		return "^" + regexp.QuoteMeta(prefix) + raw[1:]
	case strings.HasSuffix(raw, "$"):
		return "^" + regexp.QuoteMeta(prefix) + raw
	case raw == "/" || raw == "":
		return prefix
	default:
		return prefix + raw
	}
}
