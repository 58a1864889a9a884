// Package loader implements the walker's Loader contract (spec §6): an
// opaque fetcher resolving a URL to a byte payload plus mime type. The
// engine treats Loader as fire-and-forget — it does not assume the
// loader supports cancellation, only that Load's callback runs exactly
// once (spec §6 "Loader contract").
package loader

import "context"

// Options mirror the loader-specific request hints spec §6 lists:
// NoCache, ReadAsBuffer, RawResponse. RawResponse only affects the
// subresource loader's slot-filling policy (spec §4.6); the Loader
// implementation itself may ignore it, except where it changes how
// bytes are transported (e.g. skipping decompression).
type Options struct {
	NoCache      bool
	ReadAsBuffer bool
	RawResponse  bool
}

// Result is what a successful Load call produces.
type Result struct {
	Data     []byte
	MimeType string
}

// Loader resolves url to a Result. The callback cb is invoked exactly
// once, with either a nil error and populated Result or a non-nil error.
// Implementations must be safe to invoke concurrently (spec §5 "Shared
// resources").
type Loader interface {
	Load(ctx context.Context, url string, opts Options, cb func(Result, error))
}

// LoaderFunc adapts a plain function to the Loader interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type LoaderFunc func(ctx context.Context, url string, opts Options, cb func(Result, error))

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, url string, opts Options, cb func(Result, error)) {
	f(ctx, url, opts, cb)
}
