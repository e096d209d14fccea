package fangraph

import "context"

// Gateway is the single serialized path to the origin server. Identical
// fetches return byte-identical bodies: responses are cached persistently
// and a cache hit never touches the network.
type Gateway interface {
	// Get fetches the body of a content page.
	Get(ctx context.Context, url string) (string, error)

	// Post sends body as JSON to a pagination endpoint and returns the
	// response body.
	Post(ctx context.Context, url string, body any) (string, error)
}

// WebClient performs real network calls, paced so consecutive requests are
// separated by a minimum interval. Only the Gateway should hold one.
type WebClient interface {
	Get(ctx context.Context, url string) (string, error)

	// Post sends a pre-marshaled JSON body.
	Post(ctx context.Context, url string, body []byte) (string, error)
}

// ResponseCache is a persistent store of origin responses keyed by the full
// call signature. Rows are append-only: Store never overwrites and nothing
// ever expires.
type ResponseCache interface {
	// Lookup returns the cached response body for (url, method, body).
	// The bool reports whether a row exists. body is nil for GET.
	Lookup(ctx context.Context, url, method string, body []byte) (string, bool, error)

	// Store records a response. Returns ECONFLICT if a row for the exact
	// key already exists.
	Store(ctx context.Context, url, method string, body []byte, response string) error
}
