package route

// Kind classifies a compiled template.
type Kind int

const (
	Literal Kind = iota
	Parameterized
	Wildcard
	RawRegex
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Parameterized:
		return "parameterized"
	case Wildcard:
		return "wildcard"
	case RawRegex:
		return "regex"
	default:
		return "unknown"
	}
}
