package walk

import (
	"testing"
	"time"

	"hlswalk/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMasterRefreshDelay(t *testing.T) {
	delay, ok := masterRefreshDelay(15 * time.Second)
	assert.True(t, ok)
	assert.Equal(t, 15*time.Second, delay)
}

func TestMediaRefreshDelay_Terminal(t *testing.T) {
	p := &model.MediaPlaylist{Type: model.PlaylistTypeVOD, TargetDuration: 6}
	_, ok := mediaRefreshDelay(p, true)
	assert.False(t, ok, "VOD playlists are never refetched")

	p2 := &model.MediaPlaylist{EndList: true, TargetDuration: 6}
	_, ok = mediaRefreshDelay(p2, false)
	assert.False(t, ok, "endlist playlists are never refetched")
}

func TestMediaRefreshDelay_ChangedVsUnchanged(t *testing.T) {
	p := &model.MediaPlaylist{TargetDuration: 6}

	changed, ok := mediaRefreshDelay(p, true)
	assert.True(t, ok)
	assert.Equal(t, 6*time.Second, changed)

	unchanged, ok := mediaRefreshDelay(p, false)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, unchanged)
	assert.Less(t, unchanged, changed, "polling backs off once stable")
}

func TestMediaRefreshDelay_ZeroTargetDurationFallsBack(t *testing.T) {
	p := &model.MediaPlaylist{}
	delay, ok := mediaRefreshDelay(p, true)
	assert.True(t, ok)
	assert.Equal(t, time.Second, delay)
}
