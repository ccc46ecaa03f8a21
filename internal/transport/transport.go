// Package transport opens plain TCP streams to HTTP servers.
//
// A Conn is owned by the goroutine that dialed it for the whole of one
// request/response exchange and must be closed exactly once.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultPort is the port used when a URL does not name one.
const DefaultPort = 80

// ConnectError reports a failure to resolve or connect to a host.
type ConnectError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("transport: connect %s: %v", net.JoinHostPort(e.Host, strconv.Itoa(e.Port)), e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DNS reports whether the failure happened while resolving the host name.
func (e *ConnectError) DNS() bool {
	var dnsErr *net.DNSError
	return errors.As(e.Err, &dnsErr)
}

// Timeout reports whether the connect attempt timed out.
func (e *ConnectError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// SendError reports a write that could not be completed.
type SendError struct {
	Written int
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("transport: send failed after %d bytes: %v", e.Written, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Options configures a Dialer.
type Options struct {
	// DialTimeout bounds name resolution plus the TCP handshake.
	// Default: 10s
	DialTimeout time.Duration

	// IOTimeout, when positive, is applied as a deadline to the whole
	// exchange on each connection.
	IOTimeout time.Duration

	// Network is "tcp", "tcp4" or "tcp6".
	// Default: "tcp4"
	Network string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		DialTimeout: 10 * time.Second,
		Network:     "tcp4",
	}
}

// Dialer opens connections. It is safe for concurrent use.
type Dialer struct {
	opts Options
}

// NewDialer creates a Dialer with the given options.
func NewDialer(opts Options) *Dialer {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.Network == "" {
		opts.Network = "tcp4"
	}
	return &Dialer{opts: opts}
}

// Dial resolves host and connects to it on port.
// Cancelling ctx aborts a pending connect and any later blocking I/O on the
// returned connection.
func (d *Dialer) Dial(ctx context.Context, host string, port int) (*Conn, error) {
	nd := net.Dialer{Timeout: d.opts.DialTimeout}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c, err := nd.DialContext(ctx, d.opts.Network, addr)
	if err != nil {
		return nil, &ConnectError{Host: host, Port: port, Err: err}
	}

	if tcp, ok := c.(*net.TCPConn); ok {
		// Requests are a single small write.
		_ = tcp.SetNoDelay(true)
	}

	if d.opts.IOTimeout > 0 {
		_ = c.SetDeadline(time.Now().Add(d.opts.IOTimeout))
	}

	conn := &Conn{conn: c}
	conn.stop = context.AfterFunc(ctx, func() {
		// Unblock any pending Read or Write.
		_ = c.SetDeadline(time.Unix(1, 0))
	})
	return conn, nil
}

// Conn is a connected TCP stream.
type Conn struct {
	conn net.Conn
	stop func() bool
}

// Send writes all of p to the connection.
func (c *Conn) Send(p []byte) error {
	written := 0
	for written < len(p) {
		n, err := c.conn.Write(p[written:])
		written += n
		if err != nil {
			return &SendError{Written: written, Err: err}
		}
	}
	return nil
}

// Read reads available bytes from the connection. It returns io.EOF once the
// peer has closed its side.
func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close releases the socket. Call it exactly once per successful Dial.
func (c *Conn) Close() error {
	c.stop()
	return c.conn.Close()
}
