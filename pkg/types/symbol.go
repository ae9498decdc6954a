package types

// SymbolKind classifies an extracted code entity.
//
// The four kinds below are the ones the extractor emits today. Kinds are
// plain strings so that future grammars can pass through tags the rest of
// the system has never heard of without breaking anything.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindMethod    SymbolKind = "method"
	KindInterface SymbolKind = "interface"
)

// Symbol is a named code entity extracted from a source file.
//
// Symbols are scoped to the file record that produced them: two files may
// contain unrelated symbols with the same name.
type Symbol struct {
	Name string     `json:"name"`
	Kind SymbolKind `json:"kind"`
	Line int        `json:"line"` // 1-based line of the defining node
}

// Valid reports whether the symbol could be stored: extraction drops
// partial symbols rather than storing empty names.
func (s Symbol) Valid() bool {
	return s.Name != "" && s.Line >= 1
}
