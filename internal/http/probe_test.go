package http

import (
	"errors"
	"testing"
)

func TestParseHeadInfoStructured(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		length int64
		ranges bool
		etag   string
	}{
		{
			name:   "canonical",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 1000000\r\nAccept-Ranges: bytes\r\nETag: \"abc\"\r\n\r\n",
			length: 1000000,
			ranges: true,
			etag:   "abc",
		},
		{
			name:   "lower case",
			raw:    "HTTP/1.1 200 OK\r\ncontent-length: 42\r\naccept-ranges: bytes\r\n\r\n",
			length: 42,
			ranges: true,
		},
		{
			name:   "ranges none",
			raw:    "HTTP/1.0 200 OK\r\nAccept-Ranges: none\r\nContent-Length: 7\r\n\r\n",
			length: 7,
		},
		{
			name:   "no accept-ranges",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 7\r\n\r\n",
			length: 7,
		},
		{
			name:   "token list",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 9\r\nAccept-Ranges: none, Bytes\r\n\r\n",
			length: 9,
			ranges: true,
		},
		{
			name:   "weak etag",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 0\r\nETag: W/\"xyz\"\r\n\r\n",
			length: 0,
			etag:   "xyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseHeadInfo([]byte(tt.raw), StructuredHeaders)
			if err != nil {
				t.Fatalf("ParseHeadInfo: %v", err)
			}
			if info.ContentLength != tt.length {
				t.Errorf("expected length %d, got %d", tt.length, info.ContentLength)
			}
			if info.AcceptRanges != tt.ranges {
				t.Errorf("expected AcceptRanges %v, got %v", tt.ranges, info.AcceptRanges)
			}
			if info.ETag != tt.etag {
				t.Errorf("expected ETag %q, got %q", tt.etag, info.ETag)
			}
		})
	}
}

func TestParseHeadInfoStructuredErrors(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantParse bool
		wantIs    error
	}{
		{"empty", "", true, nil},
		{"missing length", "HTTP/1.0 200 OK\r\nAccept-Ranges: bytes\r\n\r\n", true, nil},
		{"bad length", "HTTP/1.0 200 OK\r\nContent-Length: 12abc\r\n\r\n", true, nil},
		{"negative length", "HTTP/1.0 200 OK\r\nContent-Length: -5\r\n\r\n", true, nil},
		{"signed length", "HTTP/1.0 200 OK\r\nContent-Length: +5\r\n\r\n", true, nil},
		{"overflowing length", "HTTP/1.0 200 OK\r\nContent-Length: 99999999999999999999\r\n\r\n", true, nil},
		{"conflicting lengths", "HTTP/1.0 200 OK\r\nContent-Length: 5\r\nContent-Length: 6\r\n\r\n", true, nil},
		{"not http", "SSH-2.0-OpenSSH\r\n", true, nil},
		{"not found", "HTTP/1.0 404 Not Found\r\nContent-Length: 10\r\n\r\n", false, ErrNotFound},
		{"server error", "HTTP/1.0 503 Service Unavailable\r\n\r\n", false, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeadInfo([]byte(tt.raw), StructuredHeaders)
			if err == nil {
				t.Fatal("expected error")
			}
			var parseErr *ParseError
			if tt.wantParse && !errors.As(err, &parseErr) {
				t.Errorf("expected *ParseError, got %T (%v)", err, err)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("expected %v, got %v", tt.wantIs, err)
			}
		})
	}
}

func TestParseHeadInfoLegacy(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		length  int64
		ranges  bool
		wantErr bool
	}{
		{
			name:   "canonical",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 1000000\r\nAccept-Ranges: bytes\r\n\r\n",
			length: 1000000,
			ranges: true,
		},
		{
			name:   "no space after colon",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length:55\r\n\r\n",
			length: 55,
		},
		{
			name:   "lower case accept-ranges is not matched",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 10\r\naccept-ranges: bytes\r\n\r\n",
			length: 10,
			ranges: false,
		},
		{
			name:    "lower case content-length is not matched",
			raw:     "HTTP/1.0 200 OK\r\ncontent-length: 10\r\n\r\n",
			wantErr: true,
		},
		{
			name:    "missing length",
			raw:     "HTTP/1.0 200 OK\r\nAccept-Ranges: bytes\r\n\r\n",
			wantErr: true,
		},
		{
			name:    "no digits",
			raw:     "HTTP/1.0 200 OK\r\nContent-Length: abc\r\n\r\n",
			wantErr: true,
		},
		{
			name:   "status ignored",
			raw:    "HTTP/1.0 404 Not Found\r\nContent-Length: 3\r\n\r\n",
			length: 3,
		},
		{
			name:   "trailing digits run stops at non-digit",
			raw:    "HTTP/1.0 200 OK\r\nContent-Length: 12 34\r\n\r\n",
			length: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseHeadInfo([]byte(tt.raw), LegacyHeaders)
			if tt.wantErr {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected *ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeadInfo: %v", err)
			}
			if info.ContentLength != tt.length {
				t.Errorf("expected length %d, got %d", tt.length, info.ContentLength)
			}
			if info.AcceptRanges != tt.ranges {
				t.Errorf("expected AcceptRanges %v, got %v", tt.ranges, info.AcceptRanges)
			}
		})
	}
}
