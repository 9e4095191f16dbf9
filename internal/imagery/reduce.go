package imagery

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"

	"epubshrink/internal/logging"
)

// Params are the reduction settings for one batch run or calibration step.
// A zero Target and a zero ScalePercent both mean "unset".
type Params struct {
	JPEGQuality    int
	PNGCompression int
	Target         Resolution
	ScalePercent   int
}

// Scaling reports whether a resolution or percentage constraint was requested.
func (p Params) Scaling() bool {
	return !p.Target.IsZero() || p.ScalePercent > 0
}

// Result is the outcome of reducing one encoded image.
type Result struct {
	Data       []byte
	Before     image.Point
	After      image.Point
	InputSize  int
	OutputSize int
}

// Reducer downscales and re-encodes images.
type Reducer struct {
	logger *slog.Logger
}

// NewReducer returns a reducer that logs resize decisions at debug level.
func NewReducer(logger *slog.Logger) *Reducer {
	return &Reducer{logger: logging.NewComponentLogger(logger, "imagery")}
}

// Decode decodes JPEG or PNG bytes into an opaque colour image. EXIF
// orientation is applied because re-encoding drops the metadata; alpha is
// discarded while colour values are kept.
func Decode(content []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	flat := imaging.Clone(img)
	for i := 3; i < len(flat.Pix); i += 4 {
		flat.Pix[i] = 0xff
	}
	return flat, nil
}

// Reduce downscales img when p requests it and encodes it in the format named
// by the extension of name. Extensions other than jpg, jpeg, and png fail with
// ErrUnsupportedImageExtension.
func (r *Reducer) Reduce(name string, img image.Image, p Params) ([]byte, error) {
	data, _, err := r.reduce(name, img, p)
	return data, err
}

// ReduceBytes decodes content, reduces it, and reports sizes and dimensions.
func (r *Reducer) ReduceBytes(name string, content []byte, p Params) (Result, error) {
	img, err := Decode(content)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", name, err)
	}
	data, after, err := r.reduce(name, img, p)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Data:       data,
		Before:     img.Bounds().Size(),
		After:      after,
		InputSize:  len(content),
		OutputSize: len(data),
	}, nil
}

func (r *Reducer) reduce(name string, img image.Image, p Params) ([]byte, image.Point, error) {
	format, ok := encodeFormat(Extension(name))
	if !ok {
		return nil, image.Point{}, fmt.Errorf("%w: %q", ErrUnsupportedImageExtension, name)
	}

	if p.Scaling() {
		img = r.downscale(name, img, p)
	}

	var opts []imaging.EncodeOption
	switch format {
	case imaging.JPEG:
		opts = append(opts, imaging.JPEGQuality(p.JPEGQuality))
	case imaging.PNG:
		opts = append(opts, imaging.PNGCompressionLevel(pngLevel(p.PNGCompression)))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), img.Bounds().Size(), nil
}

func (r *Reducer) downscale(name string, img image.Image, p Params) image.Image {
	size := img.Bounds().Size()
	if EffectiveScale(size.Y, size.X, p.Target, p.ScalePercent) >= 1 {
		r.logger.Debug("image small enough, passing",
			logging.String(logging.FieldEntry, name),
			logging.Int("height", size.Y),
			logging.Int("width", size.X),
		)
		return img
	}
	out := Downscale(img, p.Target, p.ScalePercent)
	resized := out.Bounds().Size()
	r.logger.Debug("resized image",
		logging.String(logging.FieldEntry, name),
		logging.String("from", fmt.Sprintf("%dx%d", size.Y, size.X)),
		logging.String("to", fmt.Sprintf("%dx%d", resized.Y, resized.X)),
	)
	return out
}

func encodeFormat(ext string) (imaging.Format, bool) {
	switch ext {
	case "jpg", "jpeg":
		return imaging.JPEG, true
	case "png":
		return imaging.PNG, true
	default:
		return 0, false
	}
}

// pngLevel maps a zlib-style 0-9 level onto the encoder's four settings.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
