// Package sink places downloaded chunks at their offsets in a destination.
//
// Chunks arrive out of order from concurrent workers. Every chunk covers a
// disjoint byte range, so a Sink never sees two writers for the same region.
//
// # File
//
// [NewFileSink] creates a local file pre-sized to the resource length and
// writes each chunk with WriteAt. [FileSink.Abort] removes the partial file.
//
// # Bucket
//
// [NewBucketSink] stores each chunk as its own object in a gocloud.dev/blob
// bucket, then [BucketSink.Complete] verifies that the parts cover the
// resource without gaps, concatenates them into the destination object,
// writes a manifest and removes the parts. Any blob driver works (file://,
// mem://, s3://, gs://).
//
// # Storage Layout
//
//	{bucket}/{dest}.parts/part-000000   (until Complete)
//	{bucket}/{dest}.parts/part-000001
//	{bucket}/{dest}                     (on completion)
//	{bucket}/{dest}.manifest.json       (on completion)
//
// # Manifest Format
//
//	{
//	  "object": "images/disk.iso",
//	  "total_size": 1000000,
//	  "parts": [
//	    {"index": 0, "offset": 0, "size": 250000, "checksum": "..."},
//	    ...
//	  ],
//	  "metadata": {"source": "example.com/disk.iso", "etag": "..."},
//	  "completed_at": "2026-01-15T10:30:00Z"
//	}
package sink
