// Package parse adapts the playlist-parser collaborator (spec §6 "Parser
// contract") to the walker's own domain model. The parser itself —
// github.com/mogiioin/hls-m3u8 — is treated as a pure function from raw
// text to a structured playlist; this package's only job is translating
// its result type into model.MasterPlaylist / model.MediaPlaylist and
// attaching the content hash the engine uses for change detection.
package parse

import (
	"bytes"
	"fmt"
	"net/url"

	"hlswalk/internal/hashing"
	"hlswalk/internal/model"

	"github.com/mogiioin/hls-m3u8/m3u8"
)

// Result is the tagged-variant output of Parse: exactly one of Master or
// Media is populated, following the "isMasterPlaylist" discriminator
// that spec §9 asks implementations to replace with a sum type.
type Result struct {
	Master *model.MasterPlaylist
	Media  *model.MediaPlaylist
}

// Parse decodes raw playlist text fetched from uri and converts it into
// the walker's domain model, stamping the content hash used by the
// differ to detect unchanged refetches (spec §3 invariant 2).
func Parse(uri string, raw []byte) (Result, error) {
	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(raw), false)
	if err != nil {
		return Result{}, fmt.Errorf("parse playlist %s: %w", uri, err)
	}

	hash := hashing.Hash(raw)

	switch listType {
	case m3u8.MASTER:
		mp, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return Result{}, fmt.Errorf("parse playlist %s: decoder reported MASTER but returned %T", uri, pl)
		}
		return Result{Master: convertMaster(uri, hash, mp)}, nil
	case m3u8.MEDIA:
		mp, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return Result{}, fmt.Errorf("parse playlist %s: decoder reported MEDIA but returned %T", uri, pl)
		}
		return Result{Media: convertMedia(uri, hash, mp)}, nil
	}
	return Result{}, fmt.Errorf("parse playlist %s: undetermined playlist type", uri)
}

// resolve turns a URI reference found inside a playlist fetched from
// base into an absolute URI, the way a browser resolves a relative href
// against the page it came from. Segment, key, map, and variant URIs in
// an m3u8 file are conventionally relative to the playlist that listed
// them, not to the process working directory.
func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func convertMaster(uri, hash string, mp *m3u8.MasterPlaylist) *model.MasterPlaylist {
	out := &model.MasterPlaylist{
		URI:        uri,
		Hash:       hash,
		Renditions: make(map[model.RenditionType][]*model.Rendition),
	}

	for _, v := range mp.Variants {
		if v == nil || v.Iframe {
			continue
		}
		out.Variants = append(out.Variants, &model.Variant{
			URI:        resolve(uri, v.URI),
			Bandwidth:  v.Bandwidth,
			Codecs:     v.Codecs,
			Resolution: v.Resolution,
			FrameRate:  v.FrameRate,
		})
	}

	seen := make(map[string]bool)
	for _, alt := range mp.GetAllAlternatives() {
		if alt == nil {
			continue
		}
		rt, ok := renditionType(alt.Type)
		if !ok {
			continue
		}
		key := alt.Type + "|" + alt.GroupId + "|" + alt.URI + "|" + alt.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Renditions[rt] = append(out.Renditions[rt], &model.Rendition{
			Type:    rt,
			GroupID: alt.GroupId,
			Name:    alt.Name,
			URI:     resolve(uri, alt.URI),
			Default: alt.Default,
		})
	}

	for _, sd := range mp.SessionDatas {
		if sd == nil {
			continue
		}
		out.SessionData = append(out.SessionData, &model.SessionDataEntry{
			ID:    sd.DataId,
			Value: sd.Value,
			URI:   resolve(uri, sd.URI),
		})
	}

	for _, k := range mp.SessionKeys {
		if k == nil {
			continue
		}
		out.SessionKeys = append(out.SessionKeys, &model.Key{URI: resolve(uri, k.URI), Method: k.Method})
	}

	return out
}

func renditionType(t string) (model.RenditionType, bool) {
	switch t {
	case "AUDIO":
		return model.RenditionAudio, true
	case "VIDEO":
		return model.RenditionVideo, true
	case "SUBTITLES":
		return model.RenditionSubtitles, true
	case "CLOSED-CAPTIONS":
		return model.RenditionClosedCaptions, true
	default:
		return 0, false
	}
}

func convertMedia(uri, hash string, mp *m3u8.MediaPlaylist) *model.MediaPlaylist {
	out := &model.MediaPlaylist{
		URI:            uri,
		Hash:           hash,
		Type:           playlistType(mp),
		EndList:        mp.Closed,
		TargetDuration: float64(mp.TargetDuration),
	}

	// EXT-X-KEY and EXT-X-MAP both apply to every following segment until
	// the next occurrence of the same tag. The decoder only records a
	// non-nil Key/Map on the segment that immediately follows the tag, so
	// this carries the most recent one forward. keyCache/mapCache preserve
	// pointer identity across segments so the differ can dedupe repeated
	// fetches of the same key or init section (spec §4.6).
	keyCache := make(map[*m3u8.Key]*model.Key)
	mapCache := make(map[*m3u8.Map]*model.Map)
	var currentKey *m3u8.Key
	var currentMap *m3u8.Map

	for _, seg := range mp.GetAllSegments() {
		if seg == nil {
			continue
		}
		if seg.Key != nil {
			currentKey = seg.Key
		}
		if seg.Map != nil {
			currentMap = seg.Map
		}
		out.Segments = append(out.Segments, &model.Segment{
			URI:       resolve(uri, seg.URI),
			Duration:  seg.Duration,
			ByteRange: byteRange(seg.Limit, seg.Offset),
			Key:       cachedKey(keyCache, uri, currentKey),
			Map:       cachedMap(mapCache, uri, currentMap),
		})
	}

	return out
}

func cachedKey(cache map[*m3u8.Key]*model.Key, base string, k *m3u8.Key) *model.Key {
	if k == nil {
		return nil
	}
	if v, ok := cache[k]; ok {
		return v
	}
	v := convertKey(base, k)
	cache[k] = v
	return v
}

func cachedMap(cache map[*m3u8.Map]*model.Map, base string, m *m3u8.Map) *model.Map {
	if m == nil {
		return nil
	}
	if v, ok := cache[m]; ok {
		return v
	}
	v := convertMap(base, m)
	cache[m] = v
	return v
}

func playlistType(mp *m3u8.MediaPlaylist) model.PlaylistType {
	switch mp.MediaType {
	case m3u8.VOD:
		return model.PlaylistTypeVOD
	case m3u8.EVENT:
		return model.PlaylistTypeEvent
	default:
		return model.PlaylistTypeLiveSliding
	}
}

func byteRange(limit, offset int64) *model.ByteRange {
	if limit <= 0 && offset <= 0 {
		return nil
	}
	return &model.ByteRange{Offset: offset, Length: limit}
}

func convertKey(base string, k *m3u8.Key) *model.Key {
	if k == nil || k.URI == "" || k.Method == "NONE" {
		return nil
	}
	return &model.Key{URI: resolve(base, k.URI), Method: k.Method}
}

func convertMap(base string, m *m3u8.Map) *model.Map {
	if m == nil || m.URI == "" {
		return nil
	}
	return &model.Map{URI: resolve(base, m.URI), ByteRange: byteRange(m.Limit, m.Offset)}
}
