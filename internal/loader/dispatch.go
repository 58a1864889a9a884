package loader

import (
	"context"
	"strings"

	"hlswalk/internal/logger"
)

// Dispatch routes to an HTTPLoader for http(s):// URLs and a FileLoader
// for everything else (file:// URLs and bare paths rooted at rootPath),
// so callers constructing an engine don't need to pick a loader
// themselves unless they want a custom one injected.
type Dispatch struct {
	HTTP *HTTPLoader
	File *FileLoader
}

// NewDispatch builds the default Loader for a given rootPath and
// user-agent.
func NewDispatch(rootPath, userAgent string, log logger.Logger) *Dispatch {
	return &Dispatch{
		HTTP: NewHTTPLoader(userAgent, log),
		File: NewFileLoader(rootPath),
	}
}

// Load implements Loader.
func (d *Dispatch) Load(ctx context.Context, url string, opts Options, cb func(Result, error)) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		d.HTTP.Load(ctx, url, opts, cb)
		return
	}
	d.File.Load(ctx, url, opts, cb)
}
