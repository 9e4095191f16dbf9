package imagery

import "errors"

var (
	// ErrMalformedEntryName marks image-directory entries that cannot be split
	// into a base name and a single extension.
	ErrMalformedEntryName = errors.New("malformed entry name")
	// ErrUnsupportedImageExtension marks image entries outside jpg, jpeg, and png.
	ErrUnsupportedImageExtension = errors.New("unsupported image extension")
	// ErrImageDecode marks entry bytes that could not be decoded as an image.
	ErrImageDecode = errors.New("image decode failed")
)
