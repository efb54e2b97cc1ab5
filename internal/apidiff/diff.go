// internal/apidiff/diff.go
package apidiff

import (
	"sigdiff/internal/extract"
)

// Change pairs two versions of the same symbol.
type Change struct {
	Old extract.Symbol
	New extract.Symbol
}

// Result is the added/removed/changed partition between two documents.
// The three sequences are disjoint by path and preserve source-document
// order: Removed and the Old side of Changed follow base order, Added
// follows target order.
type Result struct {
	Added   []extract.Symbol
	Removed []extract.Symbol
	Changed []Change
}

// Empty reports whether the two documents were interface-identical.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Diff computes the structural difference between two documents. Pure
// and total: no I/O, no failure mode, empty documents are fine.
//
// Matching is identity-keyed by path. When a document contains the same
// path more than once (overload sets), the first occurrence wins and
// later ones are ignored for matching.
func Diff(base, target *extract.Document) *Result {
	baseIndex := index(base)
	targetIndex := index(target)

	result := &Result{}

	seen := make(map[string]bool, base.Len())
	for _, sym := range base.Symbols {
		if seen[sym.Path] {
			continue
		}
		seen[sym.Path] = true

		counterpart, inTarget := targetIndex[sym.Path]
		switch {
		case !inTarget:
			result.Removed = append(result.Removed, sym)
		case counterpart.Signature != sym.Signature:
			result.Changed = append(result.Changed, Change{Old: sym, New: counterpart})
		}
	}

	seen = make(map[string]bool, target.Len())
	for _, sym := range target.Symbols {
		if seen[sym.Path] {
			continue
		}
		seen[sym.Path] = true

		if _, inBase := baseIndex[sym.Path]; !inBase {
			result.Added = append(result.Added, sym)
		}
	}

	return result
}

// index maps each path to its first occurrence in the document.
func index(doc *extract.Document) map[string]extract.Symbol {
	m := make(map[string]extract.Symbol, doc.Len())
	for _, sym := range doc.Symbols {
		if _, ok := m[sym.Path]; !ok {
			m[sym.Path] = sym
		}
	}
	return m
}
