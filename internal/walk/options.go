package walk

import (
	"time"

	"hlswalk/internal/loader"
	"hlswalk/internal/logger"
	"hlswalk/internal/model"
)

// SelectionFunc is the synchronous "variants"/"renditions" hook (spec
// §6): given the candidates a freshly-parsed master playlist lists, it
// returns the indices to load. A nil SelectionFunc loads everything.
type SelectionFunc[T any] func(candidates []T) []int

// Options configures a walk Engine. Only URL (passed to New separately)
// is mandatory; every field here has a spec-mandated or sensible
// default.
type Options struct {
	// RootPath is the base directory for relative filesystem URLs
	// (spec §6). Defaults to the process working directory.
	RootPath string

	// RawResponse, if true, delivers segment data uninterpreted instead
	// of byte-range-sliced (spec §4.6).
	RawResponse bool

	// MasterPlaylistTimeout is how long to wait before refetching an
	// unchanged or still-incomplete master playlist (spec §4.4). Default
	// 30s.
	MasterPlaylistTimeout time.Duration

	// UserAgent is forwarded to the default HTTP loader. Ignored if
	// Loader is set.
	UserAgent string

	// Loader overrides the default scheme-dispatching loader (spec §6
	// "Loader contract"). Tests inject fakes here.
	Loader loader.Loader

	// Concurrency bounds how many subresource/playlist fetches run at
	// once (SPEC_FULL.md domain-stack note; spec §9 design-note #4).
	// Default 8.
	Concurrency int

	// Logger receives diagnostic output. Defaults to logger.Discard.
	Logger logger.Logger

	// Variants filters which variants of a master playlist get their
	// media playlists loaded (spec §6 "variants" event). Default: all.
	Variants SelectionFunc[*model.Variant]

	// Renditions filters which alternate renditions get their media
	// playlists loaded (spec §6 "renditions" event). Default: all.
	Renditions SelectionFunc[*model.Rendition]
}

func (o Options) withDefaults() Options {
	if o.MasterPlaylistTimeout <= 0 {
		o.MasterPlaylistTimeout = 30 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.Logger == nil {
		o.Logger = logger.Discard
	}
	if o.Variants == nil {
		o.Variants = selectAll[*model.Variant]
	}
	if o.Renditions == nil {
		o.Renditions = selectAll[*model.Rendition]
	}
	return o
}

func selectAll[T any](candidates []T) []int {
	idx := make([]int, len(candidates))
	for i := range candidates {
		idx[i] = i
	}
	return idx
}
