package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zip"

	"epubshrink/internal/fileutil"
	"epubshrink/internal/imagery"
	"epubshrink/internal/logging"
	"epubshrink/internal/notifications"
)

// Notifier receives recovered entry conditions during a rewrite.
type Notifier interface {
	Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error
}

// ProgressFunc is called after each entry is written.
type ProgressFunc func(done, total int)

// Options tune a Rewriter.
type Options struct {
	// LockDir holds per-destination lock files. Empty disables locking.
	LockDir string
	// Progress, when set, is invoked after every entry.
	Progress ProgressFunc
}

// Rewriter produces a reduced copy of an EPUB archive.
type Rewriter struct {
	reducer  *imagery.Reducer
	notifier Notifier
	logger   *slog.Logger
	opts     Options
}

// NewRewriter wires a rewriter. A nil notifier discards events.
func NewRewriter(reducer *imagery.Reducer, notifier Notifier, logger *slog.Logger, opts Options) *Rewriter {
	if reducer == nil {
		reducer = imagery.NewReducer(logger)
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Rewriter{
		reducer:  reducer,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "archive"),
		opts:     opts,
	}
}

// Rewrite reads source and writes a copy to destination in which every
// supported image has been reduced with params. All other entries are copied
// unchanged. The destination only appears once the whole archive is written.
func (r *Rewriter) Rewrite(ctx context.Context, source, destination string, params imagery.Params) (*Report, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, source)
		}
		return nil, fmt.Errorf("stat source archive: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", source)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrZeroSizeInput, source)
	}
	if samePath(source, destination) {
		return nil, fmt.Errorf("destination %s would overwrite the source", destination)
	}

	unlock, err := r.lock(destination)
	if err != nil {
		return nil, err
	}
	defer unlock()

	zr, err := zip.OpenReader(source)
	if err != nil {
		return nil, fmt.Errorf("open source archive: %w", err)
	}
	defer zr.Close()

	report := &Report{
		Source:       source,
		Destination:  destination,
		Params:       params,
		OriginalSize: info.Size(),
		Entries:      make([]EntryResult, 0, len(zr.File)),
		StartedAt:    time.Now(),
	}
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("rewrite started",
		logging.String("source", source),
		logging.String("destination", destination),
		logging.Int("entries", len(zr.File)),
		logging.Int64("original_bytes", info.Size()),
	)

	out, err := fileutil.CreateAtomic(destination, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDestinationWrite, err)
	}
	defer out.Abort()

	zw := zip.NewWriter(out)
	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return nil, fmt.Errorf("%w: set comment: %w", ErrDestinationWrite, err)
		}
	}

	total := len(zr.File)
	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rewrite interrupted after %d of %d entries: %w", i, total, err)
		}
		result, err := r.rewriteEntry(ctx, logger, zw, f, params)
		if err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, result)
		if r.opts.Progress != nil {
			r.opts.Progress(i+1, total)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize archive: %w", ErrDestinationWrite, err)
	}
	if err := out.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDestinationWrite, err)
	}

	final, err := os.Stat(destination)
	if err != nil {
		return nil, fmt.Errorf("%w: stat destination: %w", ErrDestinationWrite, err)
	}
	report.FinalSize = final.Size()
	report.FinishedAt = time.Now()
	percent, err := ReductionPercent(report.OriginalSize, report.FinalSize)
	if err != nil {
		return nil, err
	}
	report.ReductionPercent = percent

	logger.Info("rewrite finished",
		logging.Int64("original_bytes", report.OriginalSize),
		logging.Int64("final_bytes", report.FinalSize),
		logging.Int("reduction_percent", percent),
		logging.Int("reduced", report.Count(OutcomeReduced)),
		logging.Int("copied", report.Count(OutcomeCopied)),
		logging.Duration("elapsed", report.Duration()),
	)
	return report, nil
}

func (r *Rewriter) rewriteEntry(ctx context.Context, logger *slog.Logger, zw *zip.Writer, f *zip.File, params imagery.Params) (EntryResult, error) {
	result := EntryResult{
		Name:   f.Name,
		Before: int64(f.UncompressedSize64),
		After:  int64(f.UncompressedSize64),
	}
	cls := imagery.Classify(f.Name)

	switch cls.Kind {
	case imagery.KindPassthrough:
		result.Outcome = OutcomeCopied
	case imagery.KindMalformed:
		result.Outcome = OutcomeMalformed
		result.Err = cls.Err
		logging.Warn(logger, "malformed image entry name, copying unchanged", string(notifications.EventMalformedEntry),
			logging.String(logging.FieldEntry, f.Name))
		r.publish(ctx, logger, notifications.EventMalformedEntry, notifications.Payload{"entry": f.Name})
	case imagery.KindUnsupported:
		result.Outcome = OutcomeUnsupported
		result.Err = cls.Err
		logging.Warn(logger, "unsupported image extension, copying unchanged", string(notifications.EventUnsupportedImage),
			logging.String(logging.FieldEntry, f.Name),
			logging.String("extension", cls.Extension))
		r.publish(ctx, logger, notifications.EventUnsupportedImage, notifications.Payload{"entry": f.Name, "extension": cls.Extension})
	case imagery.KindEncodable:
		data, reduceErr := r.reduceEntry(f, params)
		if reduceErr == nil {
			if err := writeEntry(zw, f, data); err != nil {
				return result, err
			}
			result.Outcome = OutcomeReduced
			result.After = int64(len(data))
			return result, nil
		}
		result.Outcome = OutcomeFailed
		result.Err = reduceErr
		logging.Warn(logger, "image could not be reduced, copying unchanged", string(notifications.EventDecodeFailed),
			logging.String(logging.FieldEntry, f.Name),
			logging.Error(reduceErr))
		r.publish(ctx, logger, notifications.EventDecodeFailed, notifications.Payload{"entry": f.Name, "error": reduceErr.Error()})
	}

	if err := zw.Copy(f); err != nil {
		return result, fmt.Errorf("%w: copy %s: %w", ErrDestinationWrite, f.Name, err)
	}
	return result, nil
}

func (r *Rewriter) reduceEntry(f *zip.File, params imagery.Params) ([]byte, error) {
	content, err := readEntry(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", imagery.ErrImageDecode, err)
	}
	res, err := r.reducer.ReduceBytes(f.Name, content, params)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (r *Rewriter) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("notification failed", logging.String(logging.FieldEventType, string(event)), logging.Error(err))
	}
}

func (r *Rewriter) lock(destination string) (func(), error) {
	if r.opts.LockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(r.opts.LockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(LockPath(r.opts.LockDir, destination))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDestinationLocked, destination)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release destination lock", logging.Error(err))
		}
	}, nil
}

// LockPath returns the lock file guarding destination inside lockDir.
func LockPath(lockDir, destination string) string {
	abs, err := filepath.Abs(destination)
	if err != nil {
		abs = destination
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	return content, nil
}

// writeEntry stores data under the source entry's name, method and metadata.
func writeEntry(zw *zip.Writer, f *zip.File, data []byte) error {
	header := &zip.FileHeader{
		Name:           f.Name,
		Comment:        f.Comment,
		Method:         f.Method,
		Modified:       f.Modified,
		CreatorVersion: f.CreatorVersion,
		ExternalAttrs:  f.ExternalAttrs,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrDestinationWrite, f.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrDestinationWrite, f.Name, err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
