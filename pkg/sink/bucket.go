package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrIncomplete is returned by Complete when the written parts leave a gap
// or overlap, or do not add up to the declared size.
var ErrIncomplete = errors.New("sink: parts do not cover the object")

// Manifest describes an object assembled by a BucketSink.
type Manifest struct {
	Object      string            `json:"object"`
	TotalSize   int64             `json:"total_size"`
	Checksum    string            `json:"checksum,omitempty"`
	Parts       []PartInfo        `json:"parts"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// PartInfo describes one downloaded chunk.
type PartInfo struct {
	Index    int    `json:"index"`
	Offset   int64  `json:"offset"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

// Options configures a BucketSink.
type Options struct {
	Metadata        map[string]string
	ComputeChecksum bool
	ContentType     string
}

// Option is a functional option for configuring a BucketSink.
type Option func(*Options)

// WithMetadata sets caller-defined metadata stored in the manifest.
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithChecksum enables or disables SHA256 checksums for parts and the
// assembled object. Default is true.
func WithChecksum(compute bool) Option {
	return func(o *Options) {
		o.ComputeChecksum = compute
	}
}

// WithContentType sets the content type of the assembled object.
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// BucketSink writes chunks as part objects and assembles them on Complete.
type BucketSink struct {
	bucket      *blob.Bucket
	dest        string
	size        int64
	opts        Options
	partsPrefix string

	mu     sync.Mutex
	parts  []PartInfo
	closed bool
}

// NewBucketSink creates a sink that assembles dest in bucket. size is the
// expected length of the finished object.
func NewBucketSink(bucket *blob.Bucket, dest string, size int64, options ...Option) (*BucketSink, error) {
	if dest == "" {
		return nil, errors.New("sink: destination object is required")
	}
	if size < 0 {
		return nil, fmt.Errorf("sink: invalid size %d", size)
	}

	opts := Options{ComputeChecksum: true}
	for _, opt := range options {
		opt(&opts)
	}

	return &BucketSink{
		bucket:      bucket,
		dest:        dest,
		size:        size,
		opts:        opts,
		partsPrefix: PartsPrefix(dest),
	}, nil
}

// PartsPrefix returns the key prefix under which the parts of dest are stored.
func PartsPrefix(dest string) string {
	return dest + ".parts/"
}

// ManifestKey returns the key of the manifest for dest.
func ManifestKey(dest string) string {
	return dest + ".manifest.json"
}

func (s *BucketSink) partKey(index int) string {
	return fmt.Sprintf("%spart-%06d", s.partsPrefix, index)
}

// WriteChunk uploads p as a part object.
func (s *BucketSink) WriteChunk(ctx context.Context, index int, offset int64, p []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := s.bucket.WriteAll(ctx, s.partKey(index), p, nil); err != nil {
		return fmt.Errorf("sink: write part %d: %w", index, err)
	}

	info := PartInfo{
		Index:  index,
		Offset: offset,
		Size:   int64(len(p)),
	}
	if s.opts.ComputeChecksum {
		sum := sha256.Sum256(p)
		info.Checksum = hex.EncodeToString(sum[:])
	}

	s.mu.Lock()
	s.parts = append(s.parts, info)
	s.mu.Unlock()
	return nil
}

// Parts returns the parts written so far, ordered by offset.
func (s *BucketSink) Parts() []PartInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]PartInfo, len(s.parts))
	copy(parts, s.parts)
	sort.Slice(parts, func(i, j int) bool { return parts[i].Offset < parts[j].Offset })
	return parts
}

// Complete concatenates the parts into the destination object, writes the
// manifest and removes the parts. If it fails the sink stays open and the
// parts stay in place, so the caller can Abort to remove them.
func (s *BucketSink) Complete(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	defer func() {
		if err != nil {
			s.mu.Lock()
			s.closed = false
			s.mu.Unlock()
		}
	}()

	parts := s.Parts()
	if err := checkCoverage(parts, s.size); err != nil {
		return err
	}

	checksum, err := s.assemble(ctx, parts)
	if err != nil {
		return err
	}

	manifest := Manifest{
		Object:      s.dest,
		TotalSize:   s.size,
		Checksum:    checksum,
		Parts:       parts,
		Metadata:    s.opts.Metadata,
		CompletedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("sink: marshal manifest: %w", err)
	}
	if err := s.bucket.WriteAll(ctx, ManifestKey(s.dest), data, nil); err != nil {
		// An object without a manifest would not validate.
		if derr := s.bucket.Delete(context.WithoutCancel(ctx), s.dest); derr != nil && !isNotExist(derr) {
			return fmt.Errorf("sink: write manifest: %w (delete %s: %v)", err, s.dest, derr)
		}
		return fmt.Errorf("sink: write manifest: %w", err)
	}

	return s.deleteParts(ctx, parts)
}

// assemble streams parts into the destination object and returns the
// checksum of the result, if enabled.
func (s *BucketSink) assemble(ctx context.Context, parts []PartInfo) (string, error) {
	// Cancelling the writer's context aborts the upload instead of
	// committing a truncated object.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wopts *blob.WriterOptions
	if s.opts.ContentType != "" {
		wopts = &blob.WriterOptions{ContentType: s.opts.ContentType}
	}
	w, err := s.bucket.NewWriter(wctx, s.dest, wopts)
	if err != nil {
		return "", fmt.Errorf("sink: open %s: %w", s.dest, err)
	}

	hash := sha256.New()
	var out io.Writer = w
	if s.opts.ComputeChecksum {
		out = io.MultiWriter(w, hash)
	}

	for _, part := range parts {
		if err := s.copyPart(ctx, out, part); err != nil {
			cancel()
			w.Close()
			return "", err
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("sink: close %s: %w", s.dest, err)
	}

	if !s.opts.ComputeChecksum {
		return "", nil
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (s *BucketSink) copyPart(ctx context.Context, w io.Writer, part PartInfo) error {
	r, err := s.bucket.NewReader(ctx, s.partKey(part.Index), nil)
	if err != nil {
		return fmt.Errorf("sink: open part %d: %w", part.Index, err)
	}
	defer r.Close()

	n, err := io.Copy(w, r)
	if err != nil {
		return fmt.Errorf("sink: copy part %d: %w", part.Index, err)
	}
	if n != part.Size {
		return fmt.Errorf("sink: part %d size mismatch: expected %d, got %d", part.Index, part.Size, n)
	}
	return nil
}

// Abort removes every part written so far.
func (s *BucketSink) Abort(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.deleteParts(ctx, s.Parts())
}

func (s *BucketSink) deleteParts(ctx context.Context, parts []PartInfo) error {
	for _, part := range parts {
		key := s.partKey(part.Index)
		if err := s.bucket.Delete(ctx, key); err != nil && !isNotExist(err) {
			return fmt.Errorf("sink: delete part %s: %w", key, err)
		}
	}
	return nil
}

// checkCoverage reports whether parts, sorted by offset, tile [0, size)
// exactly.
func checkCoverage(parts []PartInfo, size int64) error {
	var next int64
	for _, part := range parts {
		if part.Offset != next {
			return fmt.Errorf("%w: expected offset %d, part %d starts at %d", ErrIncomplete, next, part.Index, part.Offset)
		}
		next += part.Size
	}
	if next != size {
		return fmt.Errorf("%w: parts cover %d of %d bytes", ErrIncomplete, next, size)
	}
	return nil
}

// ReadManifest reads the manifest written when dest was completed.
func ReadManifest(ctx context.Context, bucket *blob.Bucket, dest string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, ManifestKey(dest))
	if err != nil {
		return nil, fmt.Errorf("sink: read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("sink: unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// isNotExist returns true if the error indicates the object doesn't exist.
func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
