package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	gethttp "github.com/ligustah/getter/internal/http"
	"github.com/ligustah/getter/internal/progress"
	"github.com/ligustah/getter/internal/queue"
	"github.com/ligustah/getter/pkg/sink"
)

// Options configures the downloader.
type Options struct {
	// Workers is the number of parallel download workers.
	// Default: 4
	Workers int

	// HTTPOptions configures the HTTP client.
	HTTPOptions gethttp.Options

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// MaxConsecutiveFailures is the number of consecutive chunk failures
	// before the circuit breaker trips and stops the download.
	// Zero or negative disables it.
	MaxConsecutiveFailures int

	// Logger receives structured chunk and probe events.
	// Default: discard
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:                4,
		HTTPOptions:            gethttp.DefaultOptions(),
		MaxConsecutiveFailures: 3,
	}
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.HTTPOptions.BufferSize <= 0 {
		o.HTTPOptions = gethttp.DefaultOptions()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// ErrProbe wraps any failure of the HEAD probe.
var ErrProbe = errors.New("downloader: probe failed")

// ErrLengthMismatch is returned when a chunk body is not exactly as long as
// its range.
var ErrLengthMismatch = errors.New("downloader: body length mismatch")

// ChunkError records a chunk that failed to download.
type ChunkError struct {
	Index int           // Chunk index
	Range gethttp.Range // Requested byte range
	Err   error         // The error that occurred
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (bytes %s): %v", e.Index, e.Range, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// DownloadError is returned when one or more chunks failed. The sink has
// been aborted.
type DownloadError struct {
	Failed []*ChunkError // Sorted by chunk index
}

func (e *DownloadError) Error() string {
	if len(e.Failed) == 1 {
		return "download failed: " + e.Failed[0].Error()
	}
	msgs := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("download failed: %d chunks: %s", len(e.Failed), strings.Join(msgs, "; "))
}

// Unwrap exposes every chunk failure to errors.Is and errors.As.
func (e *DownloadError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// CircuitBreakerError is returned when too many consecutive failures occur.
//
// Use errors.As to extract this error and inspect FailedChunks for details.
type CircuitBreakerError struct {
	ConsecutiveFailures int           // Number of consecutive failures
	FailedChunks        []*ChunkError // Details of failed chunks
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker tripped: %d consecutive failures", e.ConsecutiveFailures)
}

func (e *CircuitBreakerError) Unwrap() []error {
	errs := make([]error, len(e.FailedChunks))
	for i, f := range e.FailedChunks {
		errs[i] = f
	}
	return errs
}

// FileInfo contains metadata about the remote resource and the chunk plan
// derived from it.
type FileInfo struct {
	Target        gethttp.Target
	Size          int64
	ETag          string
	AcceptsRanges bool
	Plan          gethttp.ChunkPlan
}

// GetFileInfo probes t with a HEAD request and plans chunks for
// opts.Workers workers.
func GetFileInfo(ctx context.Context, t gethttp.Target, opts Options) (*FileInfo, error) {
	opts.applyDefaults()

	client := gethttp.NewClient(opts.HTTPOptions)
	info, err := client.Head(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}

	plan := gethttp.PlanChunks(info, opts.Workers)
	opts.Logger.Info("probed",
		"target", t.String(),
		"size", info.ContentLength,
		"accept_ranges", info.AcceptRanges,
		"chunks", plan.ChunkCount,
		"chunk_size", plan.ChunkSize,
	)

	return &FileInfo{
		Target:        t,
		Size:          info.ContentLength,
		ETag:          info.ETag,
		AcceptsRanges: info.AcceptRanges,
		Plan:          plan,
	}, nil
}

// task is one unit of work passed through the queue. A task with stop set
// tells the worker that receives it to exit.
type task struct {
	index  int
	rng    gethttp.Range
	ranged bool
	stop   bool
}

// Download fetches every chunk of plan from t and places it in dst.
// On success dst is completed; on any failure dst is aborted.
func Download(ctx context.Context, t gethttp.Target, plan gethttp.ChunkPlan, dst sink.Sink, opts Options) error {
	opts.applyDefaults()
	log := opts.Logger

	client := gethttp.NewClient(opts.HTTPOptions)
	ranges := plan.Ranges()

	q, err := queue.New(opts.Workers)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}

	// Circuit breaker state
	var (
		cbMu                  sync.Mutex
		consecutiveFailures   int
		failed                []*ChunkError
		circuitBreakerTripped bool
	)

	// Create cancellable context for circuit breaker
	cbCtx, cbCancel := context.WithCancel(ctx)
	defer cbCancel()

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				tk := q.Get().(task)
				if tk.stop {
					return
				}
				// Keep draining after cancellation so the producer never
				// blocks on a full queue.
				if cbCtx.Err() != nil {
					continue
				}

				err := downloadChunk(cbCtx, client, t, tk, dst, opts.Progress, log.With("worker", worker))

				cbMu.Lock()
				if err != nil {
					failed = append(failed, &ChunkError{Index: tk.index, Range: tk.rng, Err: err})

					// Chunks cut short by the caller's cancellation are
					// not server failures.
					if ctx.Err() == nil {
						consecutiveFailures++
					}
					if opts.MaxConsecutiveFailures > 0 && consecutiveFailures >= opts.MaxConsecutiveFailures {
						circuitBreakerTripped = true
						cbCancel() // Stop all workers
					}
				} else {
					consecutiveFailures = 0 // Reset on success
				}
				cbMu.Unlock()
			}
		}(i)
	}

	for i, rng := range ranges {
		q.Put(task{index: i, rng: rng, ranged: plan.Ranged})
	}
	for i := 0; i < opts.Workers; i++ {
		q.Put(task{stop: true})
	}

	wg.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i].Index < failed[j].Index })

	var result error
	switch {
	case ctx.Err() != nil:
		result = ctx.Err()
	case circuitBreakerTripped:
		result = &CircuitBreakerError{
			ConsecutiveFailures: consecutiveFailures,
			FailedChunks:        failed,
		}
	case len(failed) > 0:
		result = &DownloadError{Failed: failed}
	}

	if result != nil {
		log.Warn("download failed", "err", result)
		// The parent context may be cancelled; cleanup needs its own.
		if err := dst.Abort(context.WithoutCancel(ctx)); err != nil {
			log.Warn("abort sink", "err", err)
		}
		return result
	}

	if err := dst.Complete(ctx); err != nil {
		log.Warn("complete sink", "err", err)
		if aerr := dst.Abort(context.WithoutCancel(ctx)); aerr != nil {
			log.Warn("abort sink", "err", aerr)
		}
		return fmt.Errorf("complete sink: %w", err)
	}
	log.Info("download complete", "target", t.String(), "bytes", plan.ContentLength, "chunks", len(ranges))
	return nil
}

// downloadChunk fetches a single chunk and writes it to dst.
func downloadChunk(ctx context.Context, client *gethttp.Client, t gethttp.Target, tk task, dst sink.Sink, reporter *progress.Reporter, log *slog.Logger) error {
	if reporter != nil {
		reporter.ChunkStarted()
	}
	log.Debug("chunk started", "chunk", tk.index, "range", tk.rng.String())

	body, err := fetchChunk(ctx, client, t, tk)
	if err == nil {
		err = dst.WriteChunk(ctx, tk.index, tk.rng.Start, body)
	}
	if err != nil {
		if reporter != nil {
			reporter.ChunkFailed()
		}
		log.Debug("chunk failed", "chunk", tk.index, "range", tk.rng.String(), "err", err)
		return err
	}

	if reporter != nil {
		reporter.ChunkCompleted(int64(len(body)))
	}
	log.Debug("chunk completed", "chunk", tk.index, "bytes", len(body))
	return nil
}

// fetchChunk performs the exchange for tk and returns the verified body.
func fetchChunk(ctx context.Context, client *gethttp.Client, t gethttp.Target, tk task) ([]byte, error) {
	var rng *gethttp.Range
	if tk.ranged {
		rng = &tk.rng
	}

	buf, err := client.Get(ctx, t, rng)
	if err != nil {
		return nil, err
	}

	status, err := gethttp.ParseStatus(buf.Bytes())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, tk.ranged); err != nil {
		return nil, err
	}

	body := buf.Body()
	if int64(len(body)) != tk.rng.Len() {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrLengthMismatch, tk.rng.Len(), len(body))
	}
	return body, nil
}

// checkStatus requires 206 for ranged requests and any 2xx otherwise.
func checkStatus(st gethttp.Status, ranged bool) error {
	if ranged {
		switch st.Code {
		case 206:
			return nil
		case 200:
			// Server ignored the Range header and sent the whole resource.
			return gethttp.ErrRangeNotSupported
		}
		return &gethttp.StatusError{Code: st.Code, Status: st.Text}
	}
	if st.Code < 200 || st.Code >= 300 {
		return &gethttp.StatusError{Code: st.Code, Status: st.Text}
	}
	return nil
}
