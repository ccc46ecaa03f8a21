package http

import "strconv"

// Range is an inclusive byte range [Start, End].
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// String renders the range as it appears after "bytes=".
func (r Range) String() string {
	return strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10)
}

// HeadInfo is the result of a HEAD probe.
type HeadInfo struct {
	ContentLength int64
	AcceptRanges  bool
	StatusCode    int
	ETag          string
}

// ChunkPlan describes how a resource is split for concurrent download.
type ChunkPlan struct {
	ContentLength int64
	ChunkCount    int
	// ChunkSize is ContentLength / ChunkCount rounded down. The last chunk
	// additionally absorbs the remainder.
	ChunkSize int64
	// Ranged is false when the whole resource must be fetched with a single
	// request carrying no Range header.
	Ranged bool
}

// PlanChunks derives a chunk plan from a probe result and a worker count.
//
// With range support the resource is split into one chunk per worker; the
// chunk count is capped at the content length so that no chunk is empty.
// Without range support, or for an empty resource, there is exactly one
// chunk covering everything.
func PlanChunks(info HeadInfo, workers int) ChunkPlan {
	if workers < 1 {
		workers = 1
	}

	if !info.AcceptRanges || info.ContentLength == 0 {
		return ChunkPlan{
			ContentLength: info.ContentLength,
			ChunkCount:    1,
			ChunkSize:     info.ContentLength,
		}
	}

	count := int64(workers)
	if count > info.ContentLength {
		count = info.ContentLength
	}

	return ChunkPlan{
		ContentLength: info.ContentLength,
		ChunkCount:    int(count),
		ChunkSize:     info.ContentLength / count,
		Ranged:        true,
	}
}

// Ranges returns the byte range of every chunk in order. The ranges are
// disjoint and together cover [0, ContentLength-1]; the last range extends to
// the final byte.
func (p ChunkPlan) Ranges() []Range {
	if p.ChunkCount <= 1 {
		return []Range{{Start: 0, End: p.ContentLength - 1}}
	}

	ranges := make([]Range, p.ChunkCount)
	for i := range ranges {
		start := int64(i) * p.ChunkSize
		end := start + p.ChunkSize - 1
		if i == len(ranges)-1 {
			end = p.ContentLength - 1
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges
}
