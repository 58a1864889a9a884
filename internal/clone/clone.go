// Package clone implements the walker's Cloner (spec §4.2): emitCopy
// returns a deep-enough copy of a master or media playlist so a
// downstream handler mutating an emitted item cannot corrupt the
// engine's internal caches. Segment payloads are shared by reference —
// they're large, immutable once fetched, and the consumer is trusted not
// to mutate them (spec §4.2 rationale).
package clone

import "hlswalk/internal/model"

// Master returns an independent copy of a master playlist: its own
// Variants slice, its own Renditions map (with copied slices), its own
// SessionData and SessionKeys slices. The entries themselves (Variant,
// Rendition, SessionDataEntry, Key) are shallow-copied since none of
// their fields are shared mutable state after the engine fills them in.
func Master(p *model.MasterPlaylist) *model.MasterPlaylist {
	if p == nil {
		return nil
	}
	out := &model.MasterPlaylist{
		URI:  p.URI,
		Hash: p.Hash,
	}

	if p.Variants != nil {
		out.Variants = make([]*model.Variant, len(p.Variants))
		for i, v := range p.Variants {
			vv := *v
			out.Variants[i] = &vv
		}
	}

	if p.Renditions != nil {
		out.Renditions = make(map[model.RenditionType][]*model.Rendition, len(p.Renditions))
		for k, rs := range p.Renditions {
			cp := make([]*model.Rendition, len(rs))
			for i, r := range rs {
				rr := *r
				cp[i] = &rr
			}
			out.Renditions[k] = cp
		}
	}

	if p.SessionData != nil {
		out.SessionData = make([]*model.SessionDataEntry, len(p.SessionData))
		for i, e := range p.SessionData {
			ee := *e
			out.SessionData[i] = &ee
		}
	}

	if p.SessionKeys != nil {
		out.SessionKeys = make([]*model.Key, len(p.SessionKeys))
		for i, k := range p.SessionKeys {
			kk := *k
			out.SessionKeys[i] = &kk
		}
	}

	return out
}

// Media returns an independent copy of a media playlist: its own
// Segments slice. Segment values are shared by reference (see package
// doc) since their payloads are large and immutable post-fetch.
func Media(p *model.MediaPlaylist) *model.MediaPlaylist {
	if p == nil {
		return nil
	}
	out := &model.MediaPlaylist{
		URI:            p.URI,
		Hash:           p.Hash,
		Type:           p.Type,
		EndList:        p.EndList,
		TargetDuration: p.TargetDuration,
	}
	if p.Segments != nil {
		out.Segments = make([]*model.Segment, len(p.Segments))
		copy(out.Segments, p.Segments)
	}
	return out
}
