// Package progress provides progress reporting for chunked downloads.
//
// This package writes human-readable progress to stderr, including
// completion percentage, transfer speed and ETA, and parses byte sizes such
// as "64KB" used in configuration.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalSize:   plan.ContentLength,
//	    TotalChunks: plan.ChunkCount,
//	    ChunkSize:   plan.ChunkSize,
//	    Workers:     workers,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Workers report as chunks finish
//	reporter.ChunkStarted()
//	reporter.ChunkCompleted(n)
//
// # Output Format
//
//	[getter] Downloading: example.com/file.iso
//	[getter] Total size: 2.50 GB | Chunks: 8 x 320.00 MB | Workers: 8
//	[getter] Progress: 45.2% | 1.13 GB / 2.50 GB | Speed: 112.00 MB/s | ETA: 12s
//	[getter] Chunks: 3 completed | 5 in-progress | 0 pending | 0 failed
package progress
