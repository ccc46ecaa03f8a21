package http

// minBufferSize is the capacity of a fresh Buffer.
const minBufferSize = 8 * 1024

// Buffer is an append-only byte container owned by a single goroutine for
// one read session. Its capacity doubles as needed and never shrinks, and
// previously written bytes are never lost.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty buffer with at least the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < minBufferSize {
		capacity = minBufferSize
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Write appends p to the buffer. It never returns an error.
func (b *Buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.data = append(b.data, p...)
	return len(p), nil
}

// grow makes room for n more bytes, doubling the capacity until it fits.
func (b *Buffer) grow(n int) {
	need := len(b.data) + n
	if need <= cap(b.data) {
		return
	}
	c := cap(b.data)
	if c < minBufferSize {
		c = minBufferSize
	}
	for c < need {
		c *= 2
	}
	grown := make([]byte, len(b.data), c)
	copy(grown, b.data)
	b.data = grown
}

// Bytes returns the received bytes. The slice aliases the buffer and is only
// valid until the next Write or Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes received.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the current capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Empty reports whether no bytes were ever received.
func (b *Buffer) Empty() bool {
	return len(b.data) == 0
}

// Header returns the header block of the response, excluding the blank line.
// If there is no blank line the whole buffer is returned.
func (b *Buffer) Header() []byte {
	return SplitHeader(b.data)
}

// Body returns a view of the response body. See SplitHeaderBody.
func (b *Buffer) Body() []byte {
	return SplitHeaderBody(b.data)
}

// Release drops the buffer's storage. Views obtained earlier stay valid for
// as long as the caller holds them.
func (b *Buffer) Release() {
	b.data = nil
}
