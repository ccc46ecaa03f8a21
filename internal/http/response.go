package http

import (
	"bytes"
	"errors"
	"io"
	"net/textproto"
	"strconv"
	"sync"
)

// readChunkSize is the size of each socket read.
const readChunkSize = 8 * 1024

var headerEnd = []byte("\r\n\r\n")

// chunkPool holds scratch buffers for socket reads.
var chunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, readChunkSize)
		return &buf
	},
}

// ReadResponse drains r until the peer closes the stream and returns every
// byte received. HTTP/1.0 bodies end only at connection close, so any
// declared Content-Length is ignored here.
//
// A clean close with no bytes yields an empty Buffer and no error. A read
// failure yields a *ReadError.
func ReadResponse(r io.Reader) (*Buffer, error) {
	return readInto(r, NewBuffer(readChunkSize))
}

// readInto drains r into buf.
func readInto(r io.Reader, buf *Buffer) (*Buffer, error) {
	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	chunk := *bufp

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return nil, &ReadError{Received: buf.Len(), Err: err}
		}
	}
}

// SplitHeaderBody returns the bytes following the first CRLFCRLF in b.
// The result aliases b. If b holds no CRLFCRLF the whole of b is returned.
func SplitHeaderBody(b []byte) []byte {
	i := bytes.Index(b, headerEnd)
	if i < 0 {
		return b
	}
	return b[i+len(headerEnd):]
}

// SplitHeader returns the bytes before the first CRLFCRLF in b, or the whole
// of b when there is none.
func SplitHeader(b []byte) []byte {
	i := bytes.Index(b, headerEnd)
	if i < 0 {
		return b
	}
	return b[:i]
}

// Status is a parsed status line.
type Status struct {
	Proto string // "HTTP/1.0"
	Code  int
	Text  string // reason phrase, e.g. "Partial Content"
}

// ParseStatus parses the status line at the start of a response.
func ParseStatus(b []byte) (Status, error) {
	line := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		line = b[:i]
	}
	line = bytes.TrimRight(line, "\r")

	proto, rest, ok := bytes.Cut(line, []byte(" "))
	if !ok || !bytes.HasPrefix(proto, []byte("HTTP/")) {
		return Status{}, &ParseError{Field: "status line", Reason: "not an HTTP response"}
	}

	codeText, text, _ := bytes.Cut(rest, []byte(" "))
	code, err := strconv.Atoi(string(codeText))
	if err != nil || len(codeText) != 3 {
		return Status{}, &ParseError{Field: "status line", Reason: "invalid status code " + strconv.Quote(string(codeText))}
	}

	return Status{Proto: string(proto), Code: code, Text: string(text)}, nil
}

// ParseHeader parses the header lines of a response into canonical keys.
// The status line is skipped; lines without a colon are ignored.
func ParseHeader(b []byte) textproto.MIMEHeader {
	block := SplitHeader(b)
	h := make(textproto.MIMEHeader)

	lines := bytes.Split(block, []byte("\n"))
	for i, line := range lines {
		if i == 0 && bytes.HasPrefix(line, []byte("HTTP/")) {
			continue
		}
		line = bytes.TrimRight(line, "\r")
		k, v, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			continue
		}
		key := textproto.CanonicalMIMEHeaderKey(string(bytes.TrimSpace(k)))
		if key == "" {
			continue
		}
		h.Add(key, string(bytes.TrimSpace(v)))
	}
	return h
}
