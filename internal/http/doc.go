// Package http implements the small subset of HTTP/1.0 needed for parallel
// range downloads over raw TCP connections.
//
// This package handles:
//   - Rendering GET and HEAD requests with an optional Range header
//   - Draining a response until the server closes the connection
//   - Splitting a raw response into header and body
//   - HEAD probing for Content-Length and Accept-Ranges
//   - Computing a chunk plan for a number of workers
//
// Every exchange uses a fresh connection. Bodies are delimited only by
// connection close; a declared Content-Length is used for planning, never to
// stop reading.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	target, err := http.SplitURL("example.com/file.bin")
//
//	// Probe and plan
//	plan, err := client.Probe(ctx, target, 4)
//	// plan.ChunkCount, plan.ChunkSize, plan.Ranges()
//
//	// Download one chunk
//	rng := plan.Ranges()[0]
//	buf, err := client.Get(ctx, target, &rng)
//	body := buf.Body()
//
// # Header matching
//
// By default HEAD responses are parsed structurally with case-insensitive
// field names. LegacyHeaders reproduces exact-case substring matching of
// "Content-Length:" and "Accept-Ranges: bytes" for servers that must be
// treated byte-for-byte like older clients did.
package http
