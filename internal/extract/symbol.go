// internal/extract/symbol.go
package extract

// Symbol is one exported interface element. Path is the stable
// fully-qualified identity; Signature is the full textual shape used to
// detect same-identity changes.
type Symbol struct {
	Path      string `json:"path"`
	Signature string `json:"signature"`
}

// Display returns the canonical one-line representation used in rendered
// output.
func (s Symbol) Display() string {
	if s.Signature != "" {
		return s.Signature
	}
	return s.Path
}

// SameIdentity reports identity equality (path only).
func (s Symbol) SameIdentity(other Symbol) bool {
	return s.Path == other.Path
}

// Equal reports content equality: same identity and same signature.
func (s Symbol) Equal(other Symbol) bool {
	return s.Path == other.Path && s.Signature == other.Signature
}

// Document is the complete public interface extracted from one revision,
// in engine output order. It is never mutated after construction.
type Document struct {
	Symbols []Symbol
}

func NewDocument(symbols []Symbol) *Document {
	owned := make([]Symbol, len(symbols))
	copy(owned, symbols)
	return &Document{Symbols: owned}
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Symbols)
}
