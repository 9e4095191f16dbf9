package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// Options control Tail.
type Options struct {
	// Lines is how many trailing lines to print before following. Zero prints
	// none; a negative value prints the whole file.
	Lines  int
	Follow bool
	Poll   time.Duration
	// Match keeps only lines containing it, typically a run id.
	Match string
}

// Tail writes the last opts.Lines lines of path to w. A missing file is not an
// error: without Follow nothing is printed, with Follow Tail waits for it.
func Tail(ctx context.Context, path string, w io.Writer, opts Options) error {
	if opts.Poll <= 0 {
		opts.Poll = defaultPoll
	}

	lines, offset, err := lastLines(path, opts.Lines, opts.Match)
	if err != nil {
		return err
	}
	if err := writeLines(w, lines); err != nil {
		return err
	}
	if !opts.Follow {
		return nil
	}

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, offset, err = readFrom(path, offset, opts.Match)
		if err != nil {
			return err
		}
		if err := writeLines(w, lines); err != nil {
			return err
		}
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// lastLines keeps a ring of the final limit matching lines and returns the
// offset just past the last complete line.
func lastLines(path string, limit int, match string) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var (
		all    []string
		ring   []string
		next   int
		offset int64
	)
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	for {
		raw, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(raw))
		line := strings.TrimRight(string(raw), "\r\n")
		if match != "" && !strings.Contains(line, match) {
			continue
		}
		switch {
		case limit < 0:
			all = append(all, line)
		case limit == 0:
		case len(ring) < limit:
			ring = append(ring, line)
		default:
			ring[next] = line
			next = (next + 1) % limit
		}
	}

	if limit < 0 {
		return all, offset, nil
	}
	lines := make([]string, 0, len(ring))
	lines = append(lines, ring[next:]...)
	lines = append(lines, ring[:next]...)
	return lines, offset, nil
}

// readFrom returns the complete lines appended after offset.
func readFrom(path string, offset int64, match string) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return nil, offset, nil
	}

	data, err := io.ReadAll(io.NewSectionReader(file, offset, info.Size()-offset))
	if err != nil {
		return nil, offset, fmt.Errorf("read log file: %w", err)
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, offset, nil
	}

	var lines []string
	for _, raw := range bytes.Split(data[:end], []byte{'\n'}) {
		line := strings.TrimRight(string(raw), "\r")
		if match != "" && !strings.Contains(line, match) {
			continue
		}
		lines = append(lines, line)
	}
	return lines, offset + int64(end) + 1, nil
}
