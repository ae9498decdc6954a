// Package language maps file paths to a typed language tag and detects
// binary content. Detection is an enhancement: unknown languages still get
// indexed for raw-content search, they just yield no symbols.
package language

import (
	"path/filepath"
	"strings"
)

// Language identifies a source language the extractor may have a grammar for.
type Language string

const (
	Go         Language = "go"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Python     Language = "python"
	Rust       Language = "rust"
	Java       Language = "java"
	Kotlin     Language = "kotlin"

	// Unknown is returned for extensions without a registered language.
	Unknown Language = ""
)

// extensionTable maps lowercase extensions (without dot) to language tags.
var extensionTable = map[string]Language{
	"go":   Go,
	"js":   JavaScript,
	"jsx":  JavaScript,
	"mjs":  JavaScript,
	"cjs":  JavaScript,
	"ts":   TypeScript,
	"mts":  TypeScript,
	"cts":  TypeScript,
	"tsx":  TSX,
	"py":   Python,
	"pyi":  Python,
	"pyw":  Python,
	"rs":   Rust,
	"java": Java,
	"kt":   Kotlin,
	"kts":  Kotlin,
}

// FromPath returns the language tag for a file path, or Unknown.
func FromPath(path string) Language {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return extensionTable[ext]
}

// IsBinary reports whether data looks like binary content. A NUL byte in
// the first 8000 bytes is taken as binary, matching git's heuristic.
func IsBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
