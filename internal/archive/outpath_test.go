package archive

import "testing"

func TestDerivePath(t *testing.T) {
	tests := []struct {
		source string
		suffix string
		want   string
	}{
		{"book.epub", "_c", "book_c.epub"},
		{"my.book.epub", "_c", "my.book_c.epub"},
		{"/library/v1.2/novel.epub", "_c", "/library/v1.2/novel_c.epub"},
		{"dir.d/book", "_c", "dir.d/book_c"},
		{"book", "", "book_c"},
		{".hidden", "_c", ".hidden_c"},
		{"book.epub", "-small", "book-small.epub"},
	}
	for _, tc := range tests {
		if got := DerivePath(tc.source, tc.suffix); got != tc.want {
			t.Errorf("DerivePath(%q, %q) = %q, want %q", tc.source, tc.suffix, got, tc.want)
		}
	}
}
