package calibrate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"epubshrink/internal/archive"
	"epubshrink/internal/imagery"
	"epubshrink/internal/logging"
)

// PreviewResolution is a target far larger than any real image, so only the
// scale percentage constrains the preview.
var PreviewResolution = imagery.Resolution{Height: 100000, Width: 100000}

// previewName makes every preview a JPEG at the session quality, whatever the
// entry's own format, so the quality keys always change what is shown.
const previewName = "preview.jpeg"

// ImageSource provides the candidate images, fixed for the session.
type ImageSource interface {
	Names() []string
	Read(index int) ([]byte, error)
}

// EventSource yields one operator event per call. io.EOF ends the session
// as an exit.
type EventSource interface {
	Next(ctx context.Context) (Event, error)
}

// Display renders a preview frame.
type Display interface {
	Show(frame Frame) error
}

// Frame is everything a display needs to render one preview.
type Frame struct {
	Name             string
	Index            int
	Total            int
	Scale            int
	Quality          int
	Preview          image.Image
	OriginalSize     image.Point
	PreviewSize      image.Point
	BeforeBytes      int
	AfterBytes       int
	ReductionPercent int
	// Err is set when the current image could not be previewed.
	Err error
}

// Result is the outcome of a session. Scale and Quality are only meaningful
// when Accepted is true.
type Result struct {
	Accepted bool
	Scale    int
	Quality  int
}

// Session runs the interactive preview loop over one archive's images.
type Session struct {
	reducer *imagery.Reducer
	source  ImageSource
	logger  *slog.Logger
}

// NewSession wires a session over source.
func NewSession(reducer *imagery.Reducer, source ImageSource, logger *slog.Logger) *Session {
	if reducer == nil {
		reducer = imagery.NewReducer(logger)
	}
	return &Session{
		reducer: reducer,
		source:  source,
		logger:  logging.NewComponentLogger(logger, "calibrate"),
	}
}

// Run shows the current image, waits for one event, and applies it until the
// operator accepts or exits. An archive without candidate images ends the
// session immediately without touching events or display.
func (s *Session) Run(ctx context.Context, events EventSource, display Display) (Result, error) {
	names := s.source.Names()
	if len(names) == 0 {
		s.logger.Info("no images to calibrate")
		return Result{}, nil
	}
	state := NewState(names)
	s.logger.Info("calibration started", logging.Int("images", len(names)))

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := display.Show(s.Render(state)); err != nil {
			return Result{}, fmt.Errorf("render preview: %w", err)
		}

		ev, err := events.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("calibration input closed")
				return Result{}, nil
			}
			return Result{}, fmt.Errorf("read event: %w", err)
		}
		s.logger.Debug("calibration event", logging.String("event", ev.String()))

		switch state.Apply(ev) {
		case Exit:
			s.logger.Info("calibration exited")
			return Result{}, nil
		case Accept:
			s.logger.Info("calibration accepted",
				logging.Int("scale_percent", state.Scale),
				logging.Int("quality_percent", state.Quality),
			)
			return Result{Accepted: true, Scale: state.Scale, Quality: state.Quality}, nil
		}
	}
}

// Render encodes the current image as a JPEG with the state's scale and
// quality and decodes the result for display. Failures are returned inside the frame so the
// operator can move on to another image.
func (s *Session) Render(state State) Frame {
	frame := Frame{
		Name:    state.Current(),
		Index:   state.Index,
		Total:   len(state.Images),
		Scale:   state.Scale,
		Quality: state.Quality,
	}

	content, err := s.source.Read(state.Index)
	if err != nil {
		frame.Err = err
		return s.failed(frame)
	}
	img, err := imagery.Decode(content)
	if err != nil {
		frame.Err = fmt.Errorf("decode %s: %w", frame.Name, err)
		return s.failed(frame)
	}
	data, err := s.reducer.Reduce(previewName, img, imagery.Params{
		JPEGQuality:  state.Quality,
		Target:       PreviewResolution,
		ScalePercent: state.Scale,
	})
	if err != nil {
		frame.Err = err
		return s.failed(frame)
	}
	preview, err := imagery.Decode(data)
	if err != nil {
		frame.Err = err
		return s.failed(frame)
	}

	frame.Preview = preview
	frame.OriginalSize = img.Bounds().Size()
	frame.PreviewSize = preview.Bounds().Size()
	frame.BeforeBytes = len(content)
	frame.AfterBytes = len(data)
	if percent, err := archive.ReductionPercent(int64(len(content)), int64(len(data))); err == nil {
		frame.ReductionPercent = percent
	}
	return frame
}

func (s *Session) failed(frame Frame) Frame {
	logging.Warn(s.logger, "preview failed", "preview_failed",
		logging.String(logging.FieldEntry, frame.Name),
		logging.Error(frame.Err),
	)
	return frame
}
