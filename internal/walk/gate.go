package walk

import "hlswalk/internal/model"

// gate implements the emit gate (spec §4.7): the predicates deciding
// when a master playlist or segment is "complete enough" to push to the
// output stream, plus the one-shot bookkeeping that guarantees a given
// version is never emitted twice (spec §9 Open Question 2).

// masterReady reports whether p may be emitted right now, and has not
// already been emitted.
func masterReady(p *model.MasterPlaylist) bool {
	return !p.Emitted() && p.Ready()
}

// segmentReady reports whether seg may be emitted right now, and has
// not already been emitted.
func segmentReady(seg *model.Segment) bool {
	return !seg.Emitted() && seg.Ready()
}
