package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codescout/codescout-mcp/internal/language"
	"github.com/codescout/codescout-mcp/pkg/types"
)

// grammar describes how to find definition nodes in one language's tree.
type grammar struct {
	lang *sitter.Language

	// functions are node types emitted as function (or method, when the
	// node sits inside a container or its type is inherently a method).
	functions map[string]struct{}

	// methods are node types that are always methods regardless of
	// nesting.
	methods map[string]struct{}

	// classes are node types emitted as class-like symbols, mapped to
	// their kind. A nil kind entry defers to classKind.
	classes map[string]types.SymbolKind

	// containers are node types that turn nested functions into methods
	// without emitting a symbol themselves (e.g. Rust impl blocks).
	containers map[string]struct{}

	// classKind, when set, resolves the kind of a class-like node
	// dynamically (Go type_specs may be interfaces or concrete types).
	classKind func(n *sitter.Node) types.SymbolKind

	// nameOf resolves the identifier of a definition node. When nil the
	// "name" field of the node is used.
	nameOf func(n *sitter.Node, src []byte) string
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// registry maps language tags to grammars. Populated once at startup;
// languages absent from the registry yield no symbols.
var registry = map[language.Language]*grammar{
	language.Go: {
		lang:      golang.GetLanguage(),
		functions: set("function_declaration"),
		methods:   set("method_declaration"),
		classes:   map[string]types.SymbolKind{"type_spec": ""},
		classKind: func(n *sitter.Node) types.SymbolKind {
			if t := n.ChildByFieldName("type"); t != nil && t.Type() == "interface_type" {
				return types.KindInterface
			}
			return types.KindClass
		},
	},
	language.JavaScript: {
		lang:      javascript.GetLanguage(),
		functions: set("function_declaration", "generator_function_declaration"),
		methods:   set("method_definition"),
		classes:   map[string]types.SymbolKind{"class_declaration": types.KindClass},
	},
	language.TypeScript: {
		lang:      typescript.GetLanguage(),
		functions: set("function_declaration", "generator_function_declaration"),
		methods:   set("method_definition"),
		classes: map[string]types.SymbolKind{
			"class_declaration":     types.KindClass,
			"interface_declaration": types.KindInterface,
		},
	},
	language.TSX: {
		lang:      tsx.GetLanguage(),
		functions: set("function_declaration", "generator_function_declaration"),
		methods:   set("method_definition"),
		classes: map[string]types.SymbolKind{
			"class_declaration":     types.KindClass,
			"interface_declaration": types.KindInterface,
		},
	},
	language.Python: {
		lang:      python.GetLanguage(),
		functions: set("function_definition"),
		classes:   map[string]types.SymbolKind{"class_definition": types.KindClass},
	},
	language.Rust: {
		lang:      rust.GetLanguage(),
		functions: set("function_item"),
		classes: map[string]types.SymbolKind{
			"struct_item": types.KindClass,
			"enum_item":   types.KindClass,
			"trait_item":  types.KindInterface,
		},
		containers: set("impl_item"),
	},
	language.Java: {
		lang:    java.GetLanguage(),
		methods: set("method_declaration", "constructor_declaration"),
		classes: map[string]types.SymbolKind{
			"class_declaration":     types.KindClass,
			"interface_declaration": types.KindInterface,
			"enum_declaration":      types.KindClass,
		},
	},
	language.Kotlin: {
		lang:      kotlin.GetLanguage(),
		functions: set("function_declaration"),
		classes: map[string]types.SymbolKind{
			"class_declaration":  types.KindClass,
			"object_declaration": types.KindClass,
		},
		nameOf: firstSimpleIdentifier,
	},
}

// firstSimpleIdentifier handles grammars without a "name" field on
// definition nodes (Kotlin).
func firstSimpleIdentifier(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == "simple_identifier" {
			return child.Content(src)
		}
	}
	return ""
}
