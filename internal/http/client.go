package http

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/ligustah/getter/internal/transport"
)

// Target identifies a resource on an HTTP server.
type Target struct {
	Host string
	Port int
	Path string // without the leading slash
}

// String returns the target as host[:port]/path.
func (t Target) String() string {
	host := t.Host
	if t.Port != 0 && t.Port != transport.DefaultPort {
		host = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	}
	return host + "/" + t.Path
}

// SplitURL splits "host[:port]/path" into a Target. An "http://" prefix is
// accepted. The path must be present, even if empty ("host/").
func SplitURL(raw string) (Target, error) {
	s := raw
	if scheme, rest, ok := strings.Cut(s, "://"); ok {
		if !strings.EqualFold(scheme, "http") {
			return Target{}, &ParseError{Field: "url", Reason: "unsupported scheme " + strconv.Quote(scheme)}
		}
		s = rest
	}

	hostport, path, ok := strings.Cut(s, "/")
	if !ok {
		return Target{}, &ParseError{Field: "url", Reason: "could not split into host/page: " + raw}
	}
	if hostport == "" {
		return Target{}, &ParseError{Field: "url", Reason: "missing host: " + raw}
	}

	t := Target{Host: hostport, Port: transport.DefaultPort, Path: path}
	if strings.Contains(hostport, ":") {
		host, portText, err := net.SplitHostPort(hostport)
		if err != nil {
			return Target{}, &ParseError{Field: "url", Reason: "invalid host", Err: err}
		}
		port, err := strconv.Atoi(portText)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, &ParseError{Field: "url", Reason: "invalid port " + strconv.Quote(portText)}
		}
		t.Host, t.Port = host, port
	}
	return t, nil
}

// Options configures the client.
type Options struct {
	// Headers selects how HEAD responses are interpreted.
	// Default: StructuredHeaders
	Headers HeaderMatching

	// BufferSize is the initial capacity of each response buffer.
	// Default: 64KB
	BufferSize int

	// Transport configures dialing and I/O deadlines.
	Transport transport.Options
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Headers:    StructuredHeaders,
		BufferSize: 64 * 1024,
		Transport:  transport.DefaultOptions(),
	}
}

// Client performs one-shot HTTP/1.0 exchanges over fresh TCP connections.
// It is safe for concurrent use; every call owns its own connection and
// buffer.
type Client struct {
	dialer *transport.Dialer
	opts   Options
}

// NewClient creates a new client with the given options.
func NewClient(opts Options) *Client {
	return &Client{
		dialer: transport.NewDialer(opts.Transport),
		opts:   opts,
	}
}

// Fetch connects to host:port, sends req and reads the raw response until
// the server closes the connection. The returned Buffer holds the status
// line and headers as well as the body.
func (c *Client) Fetch(ctx context.Context, port int, req Request) (*Buffer, error) {
	conn, err := c.dialer.Dial(ctx, req.Host, port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Send(req.Bytes()); err != nil {
		return nil, err
	}

	return readInto(conn, NewBuffer(c.opts.BufferSize))
}

// Head issues a HEAD request for t and parses the result.
func (c *Client) Head(ctx context.Context, t Target) (HeadInfo, error) {
	buf, err := c.Fetch(ctx, t.Port, Request{
		Method: MethodHead,
		Host:   t.Host,
		Path:   t.Path,
	})
	if err != nil {
		return HeadInfo{}, err
	}
	defer buf.Release()

	return ParseHeadInfo(buf.Bytes(), c.opts.Headers)
}

// Probe issues a HEAD request for t and computes a chunk plan for the given
// number of workers.
func (c *Client) Probe(ctx context.Context, t Target, workers int) (ChunkPlan, error) {
	info, err := c.Head(ctx, t)
	if err != nil {
		return ChunkPlan{}, err
	}
	return PlanChunks(info, workers), nil
}

// Get fetches t with a GET request. A non-nil rng adds a Range header.
func (c *Client) Get(ctx context.Context, t Target, rng *Range) (*Buffer, error) {
	req := Request{
		Method: MethodGet,
		Host:   t.Host,
		Path:   t.Path,
	}
	if rng != nil {
		req.Range = rng.String()
	}
	return c.Fetch(ctx, t.Port, req)
}
