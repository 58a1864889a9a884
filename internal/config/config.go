// Package config loads the batch walk configuration: a JSON file naming
// one or more entry playlists to walk concurrently, each with optional
// per-stream overrides. The two-struct raw/processed pattern and error
// wrapping here follow the teacher's own config loader.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"hlswalk/internal/walk"
)

// Stream is one fully processed entry in the batch: a name for logging
// and an entry playlist URL, plus any override of the shared defaults.
type Stream struct {
	Name                  string
	EntryURL              string
	RootPath              string
	UserAgent             string
	Concurrency           int
	MasterPlaylistTimeout time.Duration
	RawResponse           bool
}

// Config is the fully processed batch configuration.
type Config struct {
	UserAgent string
	Streams   []Stream
}

// rawStream mirrors the JSON shape of one batch entry before defaults
// are layered in and the duration string is parsed.
type rawStream struct {
	Name                  string `json:"name"`
	EntryURL              string `json:"entryUrl"`
	RootPath              string `json:"rootPath"`
	UserAgent             string `json:"userAgent"`
	Concurrency           int    `json:"concurrency"`
	MasterPlaylistTimeout string `json:"masterPlaylistTimeout"`
	RawResponse           bool   `json:"rawResponse"`
}

// rawConfig maps directly onto the JSON config file.
type rawConfig struct {
	UserAgent string      `json:"userAgent"`
	Streams   []rawStream `json:"streams"`
}

// Load reads and parses the batch configuration file at path, applying
// the top-level userAgent as each stream's default and parsing each
// stream's masterPlaylistTimeout duration string.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal config JSON: %w", err)
	}

	if len(raw.Streams) == 0 {
		return nil, fmt.Errorf("config %s declares no streams", path)
	}

	streams := make([]Stream, 0, len(raw.Streams))
	for _, rs := range raw.Streams {
		if rs.EntryURL == "" {
			return nil, fmt.Errorf("stream %q has no entryUrl", rs.Name)
		}

		var timeout time.Duration
		if rs.MasterPlaylistTimeout != "" {
			timeout, err = time.ParseDuration(rs.MasterPlaylistTimeout)
			if err != nil {
				return nil, fmt.Errorf("stream %q: invalid masterPlaylistTimeout %q: %w", rs.Name, rs.MasterPlaylistTimeout, err)
			}
		}

		userAgent := rs.UserAgent
		if userAgent == "" {
			userAgent = raw.UserAgent
		}

		streams = append(streams, Stream{
			Name:                  rs.Name,
			EntryURL:              rs.EntryURL,
			RootPath:              rs.RootPath,
			UserAgent:             userAgent,
			Concurrency:           rs.Concurrency,
			MasterPlaylistTimeout: timeout,
			RawResponse:           rs.RawResponse,
		})
	}

	return &Config{UserAgent: raw.UserAgent, Streams: streams}, nil
}

// WalkOptions builds the walk.Options this stream's overrides describe.
// Callers still need to set Logger (and any selection hooks) themselves.
func (s Stream) WalkOptions() walk.Options {
	return walk.Options{
		RootPath:              s.RootPath,
		RawResponse:           s.RawResponse,
		MasterPlaylistTimeout: s.MasterPlaylistTimeout,
		UserAgent:             s.UserAgent,
		Concurrency:           s.Concurrency,
	}
}
