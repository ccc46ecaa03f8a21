package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gocloud.dev/blob"

	"github.com/ligustah/getter/internal/config"
	"github.com/ligustah/getter/internal/downloader"
	gethttp "github.com/ligustah/getter/internal/http"
	"github.com/ligustah/getter/internal/progress"
	"github.com/ligustah/getter/pkg/sink"
)

// runDownload fetches a resource with parallel range requests and writes it
// to a local file or assembles it in a bucket.
func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)

	src := addSourceFlags(fs)
	output := fs.String("output", "", "Output file path")
	bucket := fs.String("bucket", "", "Destination bucket URL (instead of -output)")
	object := fs.String("object", "", "Destination object path (with -bucket)")
	showProgress := fs.Bool("progress", false, "Show progress output")
	maxFailures := fs.Int("max-failures", 0, "Consecutive chunk failures before giving up, negative disables (default 3)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: getter download [options]

Fetch a resource over HTTP/1.0. A HEAD request sizes the resource, then
one ranged GET per worker fetches a disjoint slice of it.

Settings are read from -config, then .env and GETTER_* variables, then flags.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := src.loadConfig(config.Config{
		Output:                 *output,
		Bucket:                 *bucket,
		Object:                 *object,
		Progress:               *showProgress,
		MaxConsecutiveFailures: *maxFailures,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	target, err := resolveTarget(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext(true)
	defer cancel()

	return download(ctx, cfg, target, downloaderOptions(cfg, src.logger()))
}

func download(ctx context.Context, cfg config.Config, target gethttp.Target, opts downloader.Options) int {
	info, err := downloader.GetFileInfo(ctx, target, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error accessing source: %v\n", err)
		return ExitSourceNotAccess
	}

	if !info.AcceptsRanges {
		fmt.Fprintln(os.Stderr, "[getter] Server does not support range requests, using a single request")
	}
	fmt.Fprintf(os.Stderr, "[getter] %s: %s in %d chunks\n",
		target, progress.FormatBytes(info.Size), info.Plan.ChunkCount)

	// Open destination
	var dst sink.Sink
	var dest string
	if cfg.Bucket != "" {
		bkt, err := blob.OpenBucket(ctx, cfg.Bucket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
			return ExitStorageError
		}
		defer bkt.Close()

		dst, err = sink.NewBucketSink(bkt, cfg.Object, info.Size,
			sink.WithMetadata(map[string]string{
				"source": target.String(),
				"etag":   info.ETag,
			}),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		dest = cfg.Bucket + "/" + cfg.Object
	} else {
		fileSink, err := sink.NewFileSink(cfg.Output, info.Size)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		dst = fileSink
		dest = cfg.Output
	}

	if cfg.Progress {
		reporter := progress.NewReporter(progress.Options{
			TotalSize:      info.Size,
			TotalChunks:    info.Plan.ChunkCount,
			ChunkSize:      info.Plan.ChunkSize,
			Workers:        opts.Workers,
			Source:         target.String(),
			UpdateInterval: time.Second,
		})
		reporter.Start()
		defer reporter.Stop()
		opts.Progress = reporter
	}

	err = downloader.Download(ctx, target, info.Plan, dst, opts)
	if err != nil {
		return downloadExitCode(ctx, err)
	}

	fmt.Fprintf(os.Stderr, "[getter] Downloaded %d bytes to %s\n", info.Size, dest)
	if cfg.Bucket != "" {
		fmt.Fprintf(os.Stderr, "[getter] Manifest: %s/%s\n", cfg.Bucket, sink.ManifestKey(cfg.Object))
	}
	return ExitSuccess
}

// downloadExitCode reports err and maps it to an exit code.
func downloadExitCode(ctx context.Context, err error) int {
	var cbErr *downloader.CircuitBreakerError
	var dlErr *downloader.DownloadError

	switch {
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "[getter] Download interrupted")
		return ExitGeneralError
	case errors.Is(err, gethttp.ErrRangeNotSupported):
		fmt.Fprintln(os.Stderr, "Error: Server ignored the range request")
		return ExitRangeNotSupported
	case errors.As(err, &cbErr):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, f := range cbErr.FailedChunks {
			fmt.Fprintf(os.Stderr, "  - %v\n", f)
		}
		return ExitDownloadFailed
	case errors.As(err, &dlErr):
		fmt.Fprintf(os.Stderr, "Error: %d chunk(s) failed\n", len(dlErr.Failed))
		for _, f := range dlErr.Failed {
			fmt.Fprintf(os.Stderr, "  - %v\n", f)
		}
		return ExitDownloadFailed
	case errors.Is(err, sink.ErrIncomplete):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
}
