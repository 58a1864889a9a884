// Package model holds the walker's domain types: master and media
// playlists, the subresources they reference, and the tagged-variant
// events the engine emits. These are plain data; nothing here fetches,
// schedules, or mutates in place — replacement, not mutation, is how the
// engine keeps caches consistent (see spec §3 "Lifecycles").
package model

// ByteRange is an EXT-X-BYTERANGE-style slice of an underlying resource.
// Length == 0 means "rest of the buffer" per spec §4.6.
type ByteRange struct {
	Offset int64
	Length int64
}

// Key is encryption key material referenced by a segment or declared at
// the master-playlist level as session key material. Data is nil until
// the key has been fetched.
type Key struct {
	URI    string
	Method string
	Data   []byte
}

// Loaded reports whether the key's bytes have been fetched.
func (k *Key) Loaded() bool { return k != nil && k.Data != nil }

// Map is an EXT-X-MAP initialization section.
type Map struct {
	URI       string
	ByteRange *ByteRange
	Data      []byte
	MimeType  string
}

// Loaded reports whether the init section's bytes have been fetched.
func (m *Map) Loaded() bool { return m != nil && m.Data != nil }

// SessionDataEntry is an EXT-X-SESSION-DATA entry. Exactly one of Value
// (inline) or a fetched Data populates it; Value-bearing entries are
// considered already loaded and never trigger a fetch (spec §4.5).
type SessionDataEntry struct {
	ID    string
	Value string
	URI   string

	// Data holds the JSON-decoded payload once URI has been fetched and
	// parsed. Nil if Value was set, if the fetch hasn't completed, or if
	// the JSON parse failed (Errored will be true in the last case).
	Data map[string]interface{}

	// Errored marks a session-data entry whose fetch succeeded but whose
	// body failed to parse as JSON. Per spec §4.6 this is logged, not
	// surfaced as an error event, and the entry never acquires Data —
	// Resolved still reports true so it does not permanently block the
	// master-playlist emit gate (see SPEC_FULL.md Open Question 1).
	Errored bool
}

// Resolved reports whether this entry is no longer blocking the master
// playlist's emit gate: either it was inline, has been fetched and
// parsed, or its fetch resolved to a parse error.
func (e *SessionDataEntry) Resolved() bool {
	return e.Value != "" || e.Data != nil || e.Errored
}

// Variant is one bitrate/codec alternative listed by a master playlist.
type Variant struct {
	URI        string
	Bandwidth  uint32
	Codecs     string
	Resolution string
	FrameRate  float64
}

// RenditionType enumerates the alternate-rendition media types a master
// playlist groups EXT-X-MEDIA entries by.
type RenditionType int

const (
	RenditionAudio RenditionType = iota
	RenditionVideo
	RenditionSubtitles
	RenditionClosedCaptions
)

// Rendition is one alternate audio/video/subtitle/closed-caption track.
// URI is empty for renditions carried inline in the variant's own media
// playlist (e.g. CLOSED-CAPTIONS); such renditions are never queued for
// fetch (spec §4.5 step 2).
type Rendition struct {
	Type    RenditionType
	GroupID string
	Name    string
	URI     string
	Default bool
}

// MasterPlaylist enumerates a stream's variants and alternate renditions,
// plus any session-level metadata and keys. It is immutable once built;
// a refetch that changes the content hash produces a brand new value,
// never an in-place mutation (spec §3 invariant 2).
type MasterPlaylist struct {
	URI         string
	Hash        string
	Variants    []*Variant
	Renditions  map[RenditionType][]*Rendition
	SessionData []*SessionDataEntry
	SessionKeys []*Key

	// emitted marks that the emit gate has already admitted this exact
	// version to the output stream, guaranteeing at most one emission
	// per version even if multiple arrivals flip the gate (spec §4.7,
	// SPEC_FULL.md Open Question 2).
	emitted bool
}

// Emitted reports whether the gate has already admitted this version.
func (p *MasterPlaylist) Emitted() bool { return p.emitted }

// MarkEmitted flips the one-shot emission flag for this version.
func (p *MasterPlaylist) MarkEmitted() { p.emitted = true }

// SessionDataReady reports whether every session-data entry has
// resolved (spec §4.7, invariant 4).
func (p *MasterPlaylist) SessionDataReady() bool {
	for _, e := range p.SessionData {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

// SessionKeysReady reports whether every session key has been fetched.
func (p *MasterPlaylist) SessionKeysReady() bool {
	for _, k := range p.SessionKeys {
		if !k.Loaded() {
			return false
		}
	}
	return true
}

// Ready reports whether this master playlist may be emitted (spec §4.7).
func (p *MasterPlaylist) Ready() bool {
	return p.SessionDataReady() && p.SessionKeysReady()
}

// PlaylistType is the EXT-X-PLAYLIST-TYPE of a media playlist, or the
// absence of one for a plain live-sliding window.
type PlaylistType int

const (
	PlaylistTypeLiveSliding PlaylistType = iota
	PlaylistTypeEvent
	PlaylistTypeVOD
)

// Terminal reports whether a media playlist of this type, combined with
// the endlist flag, will never be refetched (spec §4.4).
func (pt PlaylistType) Terminal(endlist bool) bool {
	return endlist || pt == PlaylistTypeVOD
}

// Segment is one media chunk referenced by a media playlist.
type Segment struct {
	URI       string
	Duration  float64
	ByteRange *ByteRange
	Key       *Key
	Map       *Map

	Data     []byte
	MimeType string

	emitted bool
}

// Emitted reports whether this segment has already been pushed to the
// output stream.
func (s *Segment) Emitted() bool { return s.emitted }

// MarkEmitted flips the one-shot emission flag for this segment.
func (s *Segment) MarkEmitted() { s.emitted = true }

// Loaded reports whether the segment's own payload has arrived. It does
// not say anything about Key/Map — see Ready.
func (s *Segment) Loaded() bool { return s.Data != nil }

// Ready reports whether a segment may be emitted: its data has arrived,
// and any referenced key/map has too (spec §4.7 and invariant 3).
func (s *Segment) Ready() bool {
	if !s.Loaded() {
		return false
	}
	if s.Key != nil && !s.Key.Loaded() {
		return false
	}
	if s.Map != nil && !s.Map.Loaded() {
		return false
	}
	return true
}

// MediaPlaylist enumerates the ordered segments of one rendition or
// variant stream.
type MediaPlaylist struct {
	URI            string
	Hash           string
	Type           PlaylistType
	EndList        bool
	TargetDuration float64
	Segments       []*Segment
}

// Terminal reports whether this media playlist will never be refetched.
func (p *MediaPlaylist) Terminal() bool {
	return p.Type.Terminal(p.EndList)
}
