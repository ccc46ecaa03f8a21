package http

import (
	"bytes"
	"strconv"
	"strings"
)

// HeaderMatching selects how a HEAD response is interpreted.
type HeaderMatching int

const (
	// StructuredHeaders parses the status line and header block with
	// case-insensitive field names. Non-2xx responses are errors.
	StructuredHeaders HeaderMatching = iota

	// LegacyHeaders matches "Content-Length:" and "Accept-Ranges: bytes" as
	// exact-case substrings of the header block and ignores the status line.
	LegacyHeaders
)

func (m HeaderMatching) String() string {
	switch m {
	case StructuredHeaders:
		return "structured"
	case LegacyHeaders:
		return "legacy"
	default:
		return "unknown"
	}
}

// ParseHeadInfo extracts the content length and range support from a raw
// HEAD response.
func ParseHeadInfo(raw []byte, mode HeaderMatching) (HeadInfo, error) {
	if len(raw) == 0 {
		return HeadInfo{}, &ParseError{Field: "response", Reason: "empty response"}
	}
	if mode == LegacyHeaders {
		return parseHeadLegacy(raw)
	}
	return parseHeadStructured(raw)
}

var (
	legacyLengthKey = []byte("Content-Length:")
	legacyRangesKey = []byte("Accept-Ranges: bytes")
)

func parseHeadLegacy(raw []byte) (HeadInfo, error) {
	header := SplitHeader(raw)

	i := bytes.Index(header, legacyLengthKey)
	if i < 0 {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "missing"}
	}
	rest := header[i+len(legacyLengthKey):]
	if j := bytes.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	rest = bytes.TrimLeft(rest, " \t")

	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "no digits in " + strconv.Quote(string(bytes.TrimSpace(rest)))}
	}
	length, err := strconv.ParseInt(string(rest[:n]), 10, 64)
	if err != nil {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "out of range", Err: err}
	}

	info := HeadInfo{
		ContentLength: length,
		AcceptRanges:  bytes.Contains(header, legacyRangesKey),
	}
	if st, err := ParseStatus(raw); err == nil {
		info.StatusCode = st.Code
	}
	return info, nil
}

func parseHeadStructured(raw []byte) (HeadInfo, error) {
	st, err := ParseStatus(raw)
	if err != nil {
		return HeadInfo{}, err
	}
	if err := checkStatusCode(st.Code, st.Text); err != nil {
		return HeadInfo{}, err
	}

	h := ParseHeader(raw)

	values := h.Values("Content-Length")
	if len(values) == 0 {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "missing"}
	}
	if !allDigits(values[0]) {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "invalid value " + strconv.Quote(values[0])}
	}
	length, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "out of range", Err: err}
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return HeadInfo{}, &ParseError{Field: "Content-Length", Reason: "conflicting values"}
		}
	}

	return HeadInfo{
		ContentLength: length,
		AcceptRanges:  acceptsBytes(h.Values("Accept-Ranges")),
		StatusCode:    st.Code,
		ETag:          cleanETag(h.Get("ETag")),
	}, nil
}

// allDigits reports whether s is a non-empty run of ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// acceptsBytes reports whether any Accept-Ranges token is "bytes".
func acceptsBytes(values []string) bool {
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "bytes") {
				return true
			}
		}
	}
	return false
}

// cleanETag removes quotes from an ETag value.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}
