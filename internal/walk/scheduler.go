package walk

import (
	"time"

	"hlswalk/internal/model"
)

// refresh scheduler (spec §4.4). Pure policy functions: given a
// playlist's post-fetch state, how long until the next refetch, and
// whether one should happen at all. The engine calls these and, when a
// duration comes back, arranges the timer through the pending registry.

// masterRefreshDelay returns the delay before refetching a master
// playlist, and whether a refetch should happen at all. A master
// playlist is always either unchanged or needing reload (never
// terminal — only media playlists terminate), so both cases in spec
// §4.4 collapse to the same fixed timeout.
func masterRefreshDelay(timeout time.Duration) (time.Duration, bool) {
	return timeout, true
}

// mediaRefreshDelay returns the delay before refetching a media
// playlist, and whether a refetch should happen at all (spec §4.4).
func mediaRefreshDelay(p *model.MediaPlaylist, changed bool) (time.Duration, bool) {
	if p.Terminal() {
		return 0, false
	}
	target := time.Duration(p.TargetDuration * float64(time.Second))
	if target <= 0 {
		target = time.Second
	}
	if changed {
		return target, true
	}
	return target / 2, true
}
