// Package extractor turns source text into named symbols using
// tree-sitter grammars. Extraction is an enhancement on top of raw-content
// search: unsupported languages and parse failures yield an empty symbol
// list, never an error that aborts an indexing pass.
package extractor

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codescout/codescout-mcp/internal/language"
	"github.com/codescout/codescout-mcp/pkg/types"
)

// Extractor extracts symbols from source content. It is a pure function
// of its inputs and safe for concurrent use: each call parses with its own
// parser instance.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether a grammar is registered for lang.
func (e *Extractor) Supported(lang language.Language) bool {
	_, ok := registry[lang]
	return ok
}

// Extract returns the symbols defined in content, in tree traversal
// order. Languages without a registered grammar return (nil, nil). Parse
// errors surface to the caller, which treats them as "no symbols for this
// file".
func (e *Extractor) Extract(ctx context.Context, content []byte, lang language.Language) ([]types.Symbol, error) {
	g, ok := registry[lang]
	if !ok {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(g.lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}

	var symbols []types.Symbol
	walk(g, tree.RootNode(), content, false, &symbols)
	return symbols, nil
}

// walk collects definition symbols below node. inContainer marks that the
// subtree sits inside a class-like scope, which turns plain functions into
// methods.
func walk(g *grammar, node *sitter.Node, src []byte, inContainer bool, out *[]types.Symbol) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	childContainer := inContainer

	switch {
	case g.has(g.methods, nodeType):
		emit(g, node, src, types.KindMethod, out)
		childContainer = true

	case g.has(g.functions, nodeType):
		kind := types.KindFunction
		if inContainer {
			kind = types.KindMethod
		}
		emit(g, node, src, kind, out)

	case g.isClass(nodeType):
		kind := g.classes[nodeType]
		if kind == "" && g.classKind != nil {
			kind = g.classKind(node)
		}
		emit(g, node, src, kind, out)
		childContainer = true

	case g.has(g.containers, nodeType):
		childContainer = true
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(g, node.Child(i), src, childContainer, out)
	}
}

// emit appends a symbol for node unless its name cannot be resolved;
// partial symbols are dropped, not stored with empty names.
func emit(g *grammar, node *sitter.Node, src []byte, kind types.SymbolKind, out *[]types.Symbol) {
	name := g.name(node, src)
	if name == "" {
		return
	}
	*out = append(*out, types.Symbol{
		Name: name,
		Kind: kind,
		Line: int(node.StartPoint().Row) + 1,
	})
}

func (g *grammar) has(m map[string]struct{}, nodeType string) bool {
	_, ok := m[nodeType]
	return ok
}

func (g *grammar) isClass(nodeType string) bool {
	_, ok := g.classes[nodeType]
	return ok
}

func (g *grammar) name(node *sitter.Node, src []byte) string {
	if g.nameOf != nil {
		return g.nameOf(node, src)
	}
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Content(src)
	}
	return ""
}
