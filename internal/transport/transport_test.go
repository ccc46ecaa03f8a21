package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func setupTestServer(t *testing.T, serverLogic func(net.Conn)) (string, int) {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		serverLogic(conn)
		conn.Close()
	}()

	t.Cleanup(func() {
		listener.Close()
		<-done
	})

	addr := listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestDialSuccess(t *testing.T) {
	host, port := setupTestServer(t, func(net.Conn) {})

	conn, err := NewDialer(DefaultOptions()).Dial(context.Background(), host, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if conn.RemoteAddr() == nil {
		t.Error("expected remote address")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestDialConnectionRefused(t *testing.T) {
	// Grab a free port and release it so nothing is listening.
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	_, err = NewDialer(DefaultOptions()).Dial(context.Background(), "127.0.0.1", port)
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectError, got %T (%v)", err, err)
	}
	if connErr.Port != port {
		t.Errorf("expected port %d, got %d", port, connErr.Port)
	}
	if connErr.DNS() {
		t.Error("refused connection reported as DNS failure")
	}
}

func TestDialDNSFailure(t *testing.T) {
	_, err := NewDialer(DefaultOptions()).Dial(context.Background(), "this-is-not-a-real-domain.invalid", 80)
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectError, got %T (%v)", err, err)
	}
	if !connErr.DNS() {
		t.Errorf("expected DNS failure, got %v", connErr.Err)
	}
}

func TestDialCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDialer(DefaultOptions()).Dial(ctx, "127.0.0.1", 80)
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectError, got %T (%v)", err, err)
	}
	if connErr.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", connErr.Host)
	}
}

func TestSendAndRead(t *testing.T) {
	received := make(chan string, 1)
	host, port := setupTestServer(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
		conn.Write([]byte("pong"))
	})

	conn, err := NewDialer(DefaultOptions()).Dial(context.Background(), host, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Send([]byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := <-received; got != "ping" {
		t.Errorf("server received %q, want %q", got, "ping")
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "pong" {
		t.Errorf("expected pong, got %q", data)
	}
}

func TestReadUnblocksOnCancel(t *testing.T) {
	release := make(chan struct{})
	host, port := setupTestServer(t, func(net.Conn) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	conn, err := NewDialer(DefaultOptions()).Dial(ctx, host, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.Read(make([]byte, 16))
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected read error after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read did not unblock after cancel")
	}
}

func TestIOTimeout(t *testing.T) {
	release := make(chan struct{})
	host, port := setupTestServer(t, func(net.Conn) {
		<-release
	})
	defer close(release)

	opts := DefaultOptions()
	opts.IOTimeout = 50 * time.Millisecond
	conn, err := NewDialer(opts).Dial(context.Background(), host, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	_, err = conn.Read(make([]byte, 16))
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("expected timeout error, got %v", err)
	}
}
