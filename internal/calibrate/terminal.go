package calibrate

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	ansiHome    = "\x1b[H"
	ansiClear   = "\x1b[2J"
	ansiReset   = "\x1b[0m"
	halfBlock   = "▀"
	statusLines = 3
)

// Terminal drives a session from a raw-mode TTY: key presses become events
// and previews are drawn with 24-bit colour half blocks.
type Terminal struct {
	in       io.Reader
	out      io.Writer
	size     func() (int, int)
	restore  func() error
	pending  []Event
	eof      bool
	fallback [2]int

	readOnce sync.Once
	reads    chan readResult
	done     chan struct{}
	closed   sync.Once
}

type readResult struct {
	data []byte
	err  error
}

// OpenTerminal puts in into raw mode. Close restores the previous mode.
func OpenTerminal(in, out *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	outFd := int(out.Fd())
	t := NewTerminal(in, out, func() (int, int) {
		w, h, err := term.GetSize(outFd)
		if err != nil {
			return 0, 0
		}
		return w, h
	})
	t.restore = func() error {
		_, _ = io.WriteString(out, ansiReset+ansiClear+ansiHome)
		return term.Restore(fd, prev)
	}
	return t, nil
}

// NewTerminal builds a terminal over arbitrary streams. size reports the
// drawable columns and rows; zero values fall back to 80x24.
func NewTerminal(in io.Reader, out io.Writer, size func() (int, int)) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		size:     size,
		fallback: [2]int{80, 24},
		reads:    make(chan readResult),
		done:     make(chan struct{}),
	}
}

// Close restores the terminal mode when it was changed by OpenTerminal. A
// read still blocked on the input is abandoned.
func (t *Terminal) Close() error {
	t.closed.Do(func() { close(t.done) })
	if t.restore == nil {
		return nil
	}
	restore := t.restore
	t.restore = nil
	return restore()
}

// Next blocks for the next key press or until ctx is done. A read error or
// end of input is reported as io.EOF so the session treats it as an exit.
func (t *Terminal) Next(ctx context.Context) (Event, error) {
	t.readOnce.Do(func() { go t.readLoop() })
	for len(t.pending) == 0 {
		if t.eof {
			return EventNone, io.EOF
		}
		select {
		case <-ctx.Done():
			return EventNone, ctx.Err()
		case r := <-t.reads:
			t.pending = append(t.pending, DecodeKeys(r.data)...)
			if r.err != nil {
				t.eof = true
			}
		}
	}
	ev := t.pending[0]
	t.pending = t.pending[1:]
	return ev, nil
}

// readLoop owns the input so a blocked read never holds up Next.
func (t *Terminal) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		r := readResult{data: append([]byte(nil), buf[:n]...), err: err}
		select {
		case t.reads <- r:
		case <-t.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Show clears the screen and draws the frame.
func (t *Terminal) Show(frame Frame) error {
	cols, rows := t.dimensions()
	w := bufio.NewWriter(t.out)
	fmt.Fprint(w, ansiHome+ansiClear)

	if frame.Preview != nil {
		drawImage(w, frame.Preview, cols, max(rows-statusLines, 1)*2)
	}

	fmt.Fprintf(w, "%s[%d/%d] %s\r\n", ansiReset, frame.Index+1, frame.Total, frame.Name)
	if frame.Err != nil {
		fmt.Fprintf(w, "preview failed: %v\r\n", frame.Err)
	} else {
		fmt.Fprintf(w, "scale %d%%  quality %d%%  %dx%d -> %dx%d  %s -> %s (%d%%)\r\n",
			frame.Scale, frame.Quality,
			frame.OriginalSize.X, frame.OriginalSize.Y,
			frame.PreviewSize.X, frame.PreviewSize.Y,
			humanize.Bytes(uint64(frame.BeforeBytes)), humanize.Bytes(uint64(frame.AfterBytes)),
			frame.ReductionPercent,
		)
	}
	fmt.Fprint(w, "arrows: image  w/s W/S: scale  e/d E/D: quality  enter: accept  esc: quit")
	return w.Flush()
}

func (t *Terminal) dimensions() (int, int) {
	cols, rows := 0, 0
	if t.size != nil {
		cols, rows = t.size()
	}
	if cols <= 0 || rows <= 0 {
		return t.fallback[0], t.fallback[1]
	}
	return cols, rows
}

// drawImage fits img into maxW x maxH pixels and writes it two pixel rows per
// text line using the upper half block.
func drawImage(w io.Writer, img image.Image, maxW, maxH int) {
	fitted := imaging.Fit(img, maxW, maxH, imaging.Box)
	bounds := fitted.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := fitted.NRGBAAt(x, y)
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = fitted.NRGBAAt(x, y+1)
			}
			fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%s",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B, halfBlock)
		}
		fmt.Fprint(w, ansiReset+"\r\n")
	}
}
