package archive

import (
	"path/filepath"
	"strings"
)

// DefaultSuffix is inserted before the extension of derived output paths.
const DefaultSuffix = "_c"

// DerivePath inserts suffix before the last extension of the final path
// component: "my.book.epub" becomes "my.book_c.epub" and "book" becomes
// "book_c". Leading dots (hidden files) are not treated as extensions.
func DerivePath(source, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	dir, base := filepath.Split(source)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || strings.Trim(base[:idx], ".") == "" {
		return dir + base + suffix
	}
	return dir + base[:idx] + suffix + base[idx:]
}
