package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestFileSinkOutOfOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.bin")
	data := testData(10000)

	s, err := NewFileSink(path, int64(len(data)))
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	// 3 chunks, written last to first.
	ranges := [][2]int{{6666, 10000}, {3333, 6666}, {0, 3333}}
	for i, r := range ranges {
		if err := s.WriteChunk(ctx, len(ranges)-1-i, int64(r[0]), data[r[0]:r[1]]); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
	}

	if err := s.Complete(ctx); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("output does not match source data")
	}
}

func TestFileSinkConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.bin")
	data := testData(64 * 1024)
	const chunks = 16
	size := len(data) / chunks

	s, err := NewFileSink(path, int64(len(data)))
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			off := i * size
			if err := s.WriteChunk(ctx, i, int64(off), data[off:off+size]); err != nil {
				t.Errorf("WriteChunk %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if err := s.Complete(ctx); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Error("output does not match source data")
	}
}

func TestFileSinkPreallocates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	s, err := NewFileSink(path, 4096)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Abort(context.Background())

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 4096 {
		t.Errorf("expected size 4096, got %d", info.Size())
	}
}

func TestFileSinkAbortRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.bin")

	s, err := NewFileSink(path, 100)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := s.WriteChunk(ctx, 0, 0, []byte("partial")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := s.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file removed, stat err = %v", err)
	}
}

func TestFileSinkClosed(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSink(filepath.Join(t.TempDir(), "out.bin"), 0)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := s.Complete(ctx); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := s.WriteChunk(ctx, 0, 0, []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Complete, got %v", err)
	}
	if err := s.Complete(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second Complete, got %v", err)
	}
}

func TestNewFileSinkBadPath(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "dir", "out.bin"), 10)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
