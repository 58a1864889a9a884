package walk

import (
	"encoding/json"

	"hlswalk/internal/clone"
	"hlswalk/internal/loader"
	"hlswalk/internal/model"
	"hlswalk/internal/pending"
)

// rescheduleTimer cancels uri's previously-armed refresh timer, if any,
// and records the new one in timers — so each playlist only ever has at
// most one live timer, and diffMaster's removal path has something to
// cancel when a variant stops being referenced.
func (e *Engine) rescheduleTimer(timers map[string]pending.Token, uri string, tok pending.Token) {
	if old, ok := timers[uri]; ok {
		e.registry.Cancel(old)
	}
	timers[uri] = tok
}

// cancelTimer drops and cancels uri's refresh timer, if one is armed.
func (e *Engine) cancelTimer(timers map[string]pending.Token, uri string) {
	if tok, ok := timers[uri]; ok {
		e.registry.Cancel(tok)
		delete(timers, uri)
	}
}

// differ implements the playlist differ/updater (spec §4.5): applying a
// freshly parsed master or media playlist against the cache, queuing
// whatever subresource fetches the diff requires, and deciding what
// happens next — another refetch, or the walk winding down.

// applyMaster handles a successfully parsed master playlist, whether it
// arrived from the initial root fetch or a scheduled refresh.
func (e *Engine) applyMaster(uri string, newP *model.MasterPlaylist) {
	old, hadOld := e.masters[uri]
	changed := !hadOld || old.Hash != newP.Hash

	current := newP
	if !changed {
		// Unchanged: keep the existing cache entry untouched, issue no
		// new fetches (spec §3 invariant 2 — hash idempotence).
		current = old
	} else {
		e.diffMaster(uri, old, hadOld, newP)
		e.masters[uri] = newP
		e.checkMasterGate(uri)
	}

	if e.masterNeedsReload(current) {
		delay, ok := masterRefreshDelay(e.opts.MasterPlaylistTimeout)
		if ok {
			tok, scheduled := e.registry.Schedule(delay, func() {
				e.ops <- func() { e.fetchPlaylist(uri) }
			})
			if scheduled {
				e.rescheduleTimer(e.masterTimers, uri, tok)
			}
		}
	} else if e.walkComplete() {
		e.setEnded()
	}
}

// diffMaster queues fetches for variants/renditions newly referenced by
// newP, and drops cache entries for variants that disappeared (spec
// §4.5 step 1).
func (e *Engine) diffMaster(masterURI string, old *model.MasterPlaylist, hadOld bool, newP *model.MasterPlaylist) {
	selectedVariants := selected(e.opts.Variants, newP.Variants)
	for _, v := range selectedVariants {
		if _, ok := e.medias[v.URI]; !ok {
			e.fetchPlaylist(v.URI)
		}
	}

	for _, rt := range []model.RenditionType{
		model.RenditionAudio, model.RenditionVideo, model.RenditionSubtitles, model.RenditionClosedCaptions,
	} {
		list := newP.Renditions[rt]
		if len(list) == 0 {
			continue
		}
		for _, r := range selected(e.opts.Renditions, list) {
			if r.URI == "" {
				continue
			}
			if _, ok := e.medias[r.URI]; !ok {
				e.fetchPlaylist(r.URI)
			}
		}
	}

	if hadOld {
		keep := make(map[string]bool, len(newP.Variants))
		for _, v := range newP.Variants {
			keep[v.URI] = true
		}
		for _, list := range newP.Renditions {
			for _, r := range list {
				if r.URI != "" {
					keep[r.URI] = true
				}
			}
		}
		for _, v := range old.Variants {
			if !keep[v.URI] {
				delete(e.medias, v.URI)
				e.cancelTimer(e.mediaTimers, v.URI)
			}
		}
		for _, list := range old.Renditions {
			for _, r := range list {
				if r.URI != "" && !keep[r.URI] {
					delete(e.medias, r.URI)
					e.cancelTimer(e.mediaTimers, r.URI)
				}
			}
		}
	}

	for _, sd := range newP.SessionData {
		if sd.Value != "" || sd.URI == "" {
			continue
		}
		e.registry.Incr()
		e.pool.submit(fetchTask{kind: fetchSessionData, uri: sd.URI, masterURI: masterURI, sessionEntry: sd})
	}
	for _, k := range newP.SessionKeys {
		if k.Loaded() {
			continue
		}
		e.registry.Incr()
		e.pool.submit(fetchTask{kind: fetchSessionKey, uri: k.URI, masterURI: masterURI, key: k})
	}
}

// selected runs fn over candidates and returns the chosen elements.
func selected[T any](fn SelectionFunc[T], candidates []T) []T {
	idx := fn(candidates)
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(candidates) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// masterNeedsReload reports whether any variant or rendition the
// selection hooks pick out is either not yet cached or still live (spec
// §4.5 step 4).
func (e *Engine) masterNeedsReload(p *model.MasterPlaylist) bool {
	for _, v := range selected(e.opts.Variants, p.Variants) {
		mp, ok := e.medias[v.URI]
		if !ok || !mp.Terminal() {
			return true
		}
	}
	for _, list := range p.Renditions {
		for _, r := range selected(e.opts.Renditions, list) {
			if r.URI == "" {
				continue
			}
			mp, ok := e.medias[r.URI]
			if !ok || !mp.Terminal() {
				return true
			}
		}
	}
	return false
}

// applyMedia handles a successfully parsed media playlist.
func (e *Engine) applyMedia(uri string, newP *model.MediaPlaylist) {
	old, hadOld := e.medias[uri]
	changed := !hadOld || old.Hash != newP.Hash

	current := newP
	if !changed {
		current = old
	} else {
		e.diffMedia(uri, old, hadOld, newP)
		e.medias[uri] = newP
		e.stream.push(model.MediaPlaylistEvent{Playlist: clone.Media(newP)})
		for _, seg := range newP.Segments {
			e.checkSegmentGate(uri, seg)
		}
	}

	if current.Terminal() && e.walkComplete() {
		e.setEnded()
	}

	delay, ok := mediaRefreshDelay(current, changed)
	if ok {
		tok, scheduled := e.registry.Schedule(delay, func() {
			e.ops <- func() { e.fetchPlaylist(uri) }
		})
		if scheduled {
			e.rescheduleTimer(e.mediaTimers, uri, tok)
		}
	}
}

// diffMedia inherits fetched state for segments that survived from the
// prior version and queues fetches for genuinely new ones (spec §4.5
// step 2).
func (e *Engine) diffMedia(mediaURI string, old *model.MediaPlaylist, hadOld bool, newP *model.MediaPlaylist) {
	var bySrcURI map[string]*model.Segment
	if hadOld {
		bySrcURI = make(map[string]*model.Segment, len(old.Segments))
		for _, seg := range old.Segments {
			bySrcURI[seg.URI] = seg
		}
	}

	keyTasks := make(map[*model.Key][]*model.Segment)
	mapTasks := make(map[*model.Map][]*model.Segment)

	for i, seg := range newP.Segments {
		if prev, ok := bySrcURI[seg.URI]; ok {
			newP.Segments[i] = prev
			continue
		}
		e.registry.Incr()
		e.pool.submit(fetchTask{
			kind:     fetchSegmentData,
			uri:      seg.URI,
			mediaURI: mediaURI,
			segments: []*model.Segment{seg},
			opts:     loader.Options{RawResponse: e.opts.RawResponse},
		})
		if seg.Key != nil && !seg.Key.Loaded() {
			keyTasks[seg.Key] = append(keyTasks[seg.Key], seg)
		}
		if seg.Map != nil && !seg.Map.Loaded() {
			mapTasks[seg.Map] = append(mapTasks[seg.Map], seg)
		}
	}

	for key, segs := range keyTasks {
		e.registry.Incr()
		e.pool.submit(fetchTask{kind: fetchSegmentKey, uri: key.URI, mediaURI: mediaURI, key: key, segments: segs})
	}
	for m, segs := range mapTasks {
		e.registry.Incr()
		e.pool.submit(fetchTask{kind: fetchSegmentMap, uri: m.URI, mediaURI: mediaURI, mapRef: m, segments: segs})
	}
}

// walkComplete reports whether every playlist the walk is responsible
// for has settled into a terminal state, so the controller may move to
// ended (spec §4.5 step 3, §4.8). Unlike scanning e.medias directly,
// masterNeedsReload only turns false once every variant/rendition the
// master actually references is both cached and terminal — a variant whose
// fetch simply hasn't landed yet correctly keeps the walk open.
func (e *Engine) walkComplete() bool {
	for _, m := range e.masters {
		if e.masterNeedsReload(m) {
			return false
		}
	}
	if len(e.masters) == 0 {
		mp, ok := e.medias[e.entryURI]
		if !ok || !mp.Terminal() {
			return false
		}
	}
	return true
}

// checkMasterGate pushes uri's cached master exactly once: masterReady
// already refuses a playlist whose emitted flag is set, so MarkEmitted
// here only needs to flip that flag before the next checkMasterGate
// call — it never has to re-check it itself.
func (e *Engine) checkMasterGate(uri string) {
	p, ok := e.masters[uri]
	if !ok {
		return
	}
	if masterReady(p) {
		p.MarkEmitted()
		e.stream.push(model.MasterPlaylistEvent{Playlist: clone.Master(p)})
	}
}

// checkSegmentGate pushes seg exactly once, by the same single-emission
// guarantee checkMasterGate relies on: segmentReady's own !Emitted()
// check is what makes repeat calls (one per resolved key/map/data fetch)
// safe, not anything done here.
func (e *Engine) checkSegmentGate(mediaURI string, seg *model.Segment) {
	if segmentReady(seg) {
		seg.MarkEmitted()
		e.stream.push(model.SegmentEvent{PlaylistURI: mediaURI, Segment: seg})
	}
}

func (e *Engine) handleSegmentDataFetched(task fetchTask, res loader.Result) {
	seg := task.segments[0]
	if task.opts.RawResponse {
		seg.Data = res.Data
	} else {
		seg.Data = sliceByteRange(res.Data, seg.ByteRange)
	}
	seg.MimeType = res.MimeType
	e.checkSegmentGate(task.mediaURI, seg)
}

func (e *Engine) handleSegmentKeyFetched(task fetchTask, res loader.Result) {
	task.key.Data = res.Data
	for _, seg := range task.segments {
		e.checkSegmentGate(task.mediaURI, seg)
	}
}

func (e *Engine) handleSegmentMapFetched(task fetchTask, res loader.Result) {
	task.mapRef.Data = sliceByteRange(res.Data, task.mapRef.ByteRange)
	task.mapRef.MimeType = res.MimeType
	for _, seg := range task.segments {
		e.checkSegmentGate(task.mediaURI, seg)
	}
}

func (e *Engine) handleSessionKeyFetched(task fetchTask, res loader.Result) {
	task.key.Data = res.Data
	e.checkMasterGate(task.masterURI)
}

func (e *Engine) handleSessionDataFetched(task fetchTask, res loader.Result) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(res.Data, &parsed); err != nil {
		e.log.Warnf("session data %s is not valid JSON: %v", task.uri, err)
		task.sessionEntry.Errored = true
	} else {
		task.sessionEntry.Data = parsed
	}
	e.checkMasterGate(task.masterURI)
}

func sliceByteRange(raw []byte, br *model.ByteRange) []byte {
	if br == nil {
		return raw
	}
	offset := br.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(raw)) {
		offset = int64(len(raw))
	}
	length := br.Length
	end := int64(len(raw))
	if length > 0 && offset+length < end {
		end = offset + length
	}
	return raw[offset:end]
}
