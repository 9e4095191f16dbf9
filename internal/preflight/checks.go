package preflight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"epubshrink/internal/archive"
)

// zipMagic is the local file header signature every zip container starts with.
var zipMagic = []byte("PK\x03\x04")

// CheckSource verifies that path is a readable, non-empty zip file.
func CheckSource(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path), Err: archive.ErrInputNotFound}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if info.Size() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: empty file)", path), Err: archive.ErrZeroSizeInput}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: open: %v)", path, err)}
	}
	defer f.Close()
	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, zipMagic) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a zip archive)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (zip, %d bytes)", path, info.Size())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckNtfyTopic verifies the topic is an absolute http(s) URL. It does not
// contact the server.
func CheckNtfyTopic(topic string) Result {
	const name = "ntfy topic"
	u, err := url.Parse(topic)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: scheme must be http or https)", topic)}
	}
	if u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing host)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

func (r Result) error() error {
	if r.Err != nil {
		return fmt.Errorf("%s: %w: %s", r.Name, r.Err, r.Detail)
	}
	return errors.New(r.Name + ": " + r.Detail)
}

func parentDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}
	return dir
}
