// Package downloader orchestrates parallel HTTP/1.0 range downloads.
//
// This package coordinates the HTTP client, the bounded task queue and a
// [sink.Sink]. It manages the worker pool and handles shutdown.
//
// # Usage
//
// Probe first, size the sink from the result, then download:
//
//	info, err := downloader.GetFileInfo(ctx, target, opts)
//	dst, err := sink.NewFileSink("disk.iso", info.Size)
//	err = downloader.Download(ctx, target, info.Plan, dst, opts)
//
// # Worker Pool
//
// The queue holds at most one task per worker. The caller's goroutine puts
// one task per chunk and then one stop task per worker; each worker takes
// tasks until it receives a stop task. Every worker performs its own
// connect, send, read and close, checks the status (206 for ranged chunks)
// and the body length, then writes the body at the chunk's offset.
//
// # Failure
//
// Chunk failures are collected into a [DownloadError]. When
// MaxConsecutiveFailures chunks fail in a row the remaining tasks are
// skipped and a [CircuitBreakerError] is returned. Cancelling the context
// interrupts in-flight exchanges. In every failure case the sink is aborted.
package downloader
