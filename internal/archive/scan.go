package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/klauspost/compress/zip"

	"epubshrink/internal/imagery"
)

// ImageSet is a read-only view over the encodable images of an archive, in
// archive order. The list is fixed when the set is opened.
type ImageSet struct {
	reader *zip.ReadCloser
	files  []*zip.File
	names  []string
}

// OpenImages scans path once and collects every entry that classifies as an
// encodable image.
func OpenImages(path string) (*ImageSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat source archive: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrZeroSizeInput, path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open source archive: %w", err)
	}
	set := &ImageSet{reader: zr}
	for _, f := range zr.File {
		if imagery.Classify(f.Name).Kind != imagery.KindEncodable {
			continue
		}
		set.files = append(set.files, f)
		set.names = append(set.names, f.Name)
	}
	return set, nil
}

// Len returns the number of images in the set.
func (s *ImageSet) Len() int {
	return len(s.names)
}

// Names returns a copy of the image entry names.
func (s *ImageSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Read returns the encoded bytes of the image at index.
func (s *ImageSet) Read(index int) ([]byte, error) {
	if index < 0 || index >= len(s.files) {
		return nil, fmt.Errorf("image index %d out of range [0,%d)", index, len(s.files))
	}
	return readEntry(s.files[index])
}

// Close releases the underlying archive.
func (s *ImageSet) Close() error {
	if s == nil || s.reader == nil {
		return nil
	}
	return s.reader.Close()
}
