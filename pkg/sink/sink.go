package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrClosed is returned when writing to a sink after Complete or Abort.
var ErrClosed = errors.New("sink: closed")

// Sink receives chunk bytes at fixed offsets. WriteChunk is safe for
// concurrent use as long as callers write disjoint ranges.
type Sink interface {
	// WriteChunk stores p as chunk index, starting at offset.
	WriteChunk(ctx context.Context, index int, offset int64, p []byte) error

	// Complete finalizes the destination once every chunk has been written.
	Complete(ctx context.Context) error

	// Abort discards everything written so far.
	Abort(ctx context.Context) error
}

// FileSink writes chunks into a local file.
type FileSink struct {
	path string
	f    *os.File

	mu     sync.RWMutex
	closed bool
}

// NewFileSink creates (or truncates) path and sizes it to size bytes.
func NewFileSink(path string, size int64) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	if size > 0 {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("sink: allocate %s: %w", path, err)
		}
	}
	return &FileSink{path: path, f: f}, nil
}

// Path returns the destination file path.
func (s *FileSink) Path() string {
	return s.path
}

// WriteChunk writes p at offset.
func (s *FileSink) WriteChunk(_ context.Context, index int, offset int64, p []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.f.WriteAt(p, offset); err != nil {
		return fmt.Errorf("sink: write chunk %d: %w", index, err)
	}
	return nil
}

// Complete flushes and closes the file. If it fails the sink stays open so
// that Abort still removes the file.
func (s *FileSink) Complete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sink: sync %s: %w", s.path, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("sink: close %s: %w", s.path, err)
	}
	s.closed = true
	return nil
}

// Abort closes and removes the partial file.
func (s *FileSink) Abort(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.f.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sink: remove %s: %w", s.path, err)
	}
	return nil
}
