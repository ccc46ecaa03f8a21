package http

// Request methods understood by the builder.
const (
	MethodGet  = "GET"
	MethodHead = "HEAD"
)

// UserAgent is sent with every request.
const UserAgent = "getter"

// Request is a single HTTP/1.0 request.
type Request struct {
	Method string
	Host   string
	// Path is inserted after the leading slash verbatim, without escaping.
	Path string
	// Range is the value after "bytes=", e.g. "0-499". Empty means no
	// Range header.
	Range string
}

// Bytes renders the request in wire format.
func (r Request) Bytes() []byte {
	return Build(r.Method, r.Host, r.Path, r.Range)
}

// Build renders an HTTP/1.0 request terminated by an empty line.
// method must be MethodGet or MethodHead.
func Build(method, host, path, rng string) []byte {
	n := len(method) + len(host) + len(path) + len(rng) + 64
	b := make([]byte, 0, n)

	b = append(b, method...)
	b = append(b, " /"...)
	b = append(b, path...)
	b = append(b, " HTTP/1.0\r\n"...)

	b = append(b, "Host: "...)
	b = append(b, host...)
	b = append(b, "\r\n"...)

	if rng != "" {
		b = append(b, "Range: bytes="...)
		b = append(b, rng...)
		b = append(b, "\r\n"...)
	}

	b = append(b, "User-Agent: "+UserAgent+"\r\n"...)
	b = append(b, "\r\n"...)
	return b
}
