package filter

// skipDirs are directory names pruned at the path-component level, so whole
// subtrees are never walked.
var skipDirs = map[string]struct{}{
	".git":          {},
	".svn":          {},
	".hg":           {},
	"node_modules":  {},
	"vendor":        {},
	"__pycache__":   {},
	".idea":         {},
	".vscode":       {},
	".vs":           {},
	".next":         {},
	".nuxt":         {},
	".cache":        {},
	".parcel-cache": {},
	"coverage":      {},
	".nyc_output":   {},
	"htmlcov":       {},
	".venv":         {},
	"venv":          {},
	"dist":          {},
	"build":         {},
	"target":        {},
}

// binaryExtensions is the denylist of extensions (without dot) that are
// never worth indexing: images, archives, executables, fonts, media,
// databases, compiled artifacts.
var binaryExtensions = map[string]struct{}{
	// Executables and compiled objects
	"exe": {}, "dll": {}, "so": {}, "dylib": {}, "o": {}, "a": {},
	"lib": {}, "class": {}, "jar": {}, "war": {}, "pyc": {}, "pyo": {},
	"wasm": {},
	// Archives
	"zip": {}, "tar": {}, "gz": {}, "tgz": {}, "bz2": {}, "xz": {},
	"rar": {}, "7z": {},
	// Images
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "ico": {},
	"webp": {}, "tiff": {}, "svg": {},
	// Fonts
	"woff": {}, "woff2": {}, "ttf": {}, "eot": {}, "otf": {},
	// Media
	"mp3": {}, "mp4": {}, "avi": {}, "mov": {}, "wav": {}, "flac": {},
	"mkv": {}, "ogg": {},
	// Documents
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {},
	"pptx": {},
	// Databases
	"db": {}, "sqlite": {}, "sqlite3": {}, "mdb": {},
}
