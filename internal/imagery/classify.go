package imagery

import (
	"fmt"
	"strings"
)

// ImagesPrefix is the archive directory that holds book images. It is matched
// case-insensitively so both OEBPS/Images/ and OEBPS/images/ are recognised.
const ImagesPrefix = "OEBPS/Images/"

// Kind is the outcome of classifying an archive entry name.
type Kind int

const (
	// KindPassthrough marks entries outside the images directory.
	KindPassthrough Kind = iota
	// KindMalformed marks image-directory entries whose name has no single extension.
	KindMalformed
	// KindUnsupported marks image-directory entries with an extension we do not encode.
	KindUnsupported
	// KindEncodable marks jpg, jpeg, and png entries.
	KindEncodable
)

func (k Kind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindMalformed:
		return "malformed"
	case KindUnsupported:
		return "unsupported"
	case KindEncodable:
		return "encodable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Classification describes how an entry is handled.
type Classification struct {
	Kind      Kind
	Extension string
	Err       error
}

var encodableExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// IsImageCandidate reports whether name is a file under the images directory
// and carries at least one dot. Directory entries are never candidates.
func IsImageCandidate(name string) bool {
	if len(name) < len(ImagesPrefix) || strings.HasSuffix(name, "/") {
		return false
	}
	if !strings.EqualFold(name[:len(ImagesPrefix)], ImagesPrefix) {
		return false
	}
	return strings.Contains(name, ".")
}

// SplitName splits name at its first dot into base and extension. Names with
// no dot, an empty base or extension, or a multi-part extension
// ("cover.min.jpg", "dir.v2/cover") are reported as ErrMalformedEntryName.
func SplitName(name string) (string, string, error) {
	idx := strings.IndexByte(name, '.')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %q has no extension", ErrMalformedEntryName, name)
	}
	base, ext := name[:idx], name[idx+1:]
	switch {
	case base == "" || strings.HasSuffix(base, "/"):
		return "", "", fmt.Errorf("%w: %q has an empty base name", ErrMalformedEntryName, name)
	case ext == "":
		return "", "", fmt.Errorf("%w: %q has an empty extension", ErrMalformedEntryName, name)
	case strings.ContainsAny(ext, "./"):
		return "", "", fmt.Errorf("%w: %q has a multi-part extension", ErrMalformedEntryName, name)
	}
	return base, ext, nil
}

// Extension returns the lower-cased extension of name, or "" when the name
// cannot be split.
func Extension(name string) string {
	_, ext, err := SplitName(name)
	if err != nil {
		return ""
	}
	return strings.ToLower(ext)
}

// IsEncodable reports whether ext (without the dot) is one we re-encode.
func IsEncodable(ext string) bool {
	_, ok := encodableExtensions[strings.ToLower(ext)]
	return ok
}

// Classify derives the handling for an archive entry from its name alone.
func Classify(name string) Classification {
	if !IsImageCandidate(name) {
		return Classification{Kind: KindPassthrough}
	}
	_, ext, err := SplitName(name)
	if err != nil {
		return Classification{Kind: KindMalformed, Err: err}
	}
	ext = strings.ToLower(ext)
	if !IsEncodable(ext) {
		return Classification{
			Kind:      KindUnsupported,
			Extension: ext,
			Err:       fmt.Errorf("%w: %q", ErrUnsupportedImageExtension, name),
		}
	}
	return Classification{Kind: KindEncodable, Extension: ext}
}
