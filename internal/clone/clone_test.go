package clone_test

import (
	"testing"

	"hlswalk/internal/clone"
	"hlswalk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaster_DeepEnough(t *testing.T) {
	src := &model.MasterPlaylist{
		URI:      "master.m3u8",
		Hash:     "abc",
		Variants: []*model.Variant{{URI: "a.m3u8", Bandwidth: 100}},
		Renditions: map[model.RenditionType][]*model.Rendition{
			model.RenditionAudio: {{URI: "audio.m3u8", GroupID: "aud"}},
		},
		SessionData: []*model.SessionDataEntry{{ID: "sd1", Value: "x"}},
		SessionKeys: []*model.Key{{URI: "key1"}},
	}

	out := clone.Master(src)
	require.NotSame(t, src, out)
	require.Len(t, out.Variants, 1)
	assert.NotSame(t, src.Variants[0], out.Variants[0])
	assert.Equal(t, *src.Variants[0], *out.Variants[0])

	// Mutating the copy must not reach back into the cache.
	out.Variants[0].Bandwidth = 999
	assert.Equal(t, uint32(100), src.Variants[0].Bandwidth)

	out.Variants = append(out.Variants, &model.Variant{URI: "b.m3u8"})
	assert.Len(t, src.Variants, 1)

	assert.NotSame(t, src.SessionData[0], out.SessionData[0])
	assert.NotSame(t, src.SessionKeys[0], out.SessionKeys[0])
}

func TestMedia_SegmentsSharedByReference(t *testing.T) {
	seg := &model.Segment{URI: "s1.m4s", Data: []byte("payload")}
	src := &model.MediaPlaylist{URI: "media.m3u8", Segments: []*model.Segment{seg}}

	out := clone.Media(src)
	require.NotSame(t, src, out)
	require.Len(t, out.Segments, 1)
	// Same pointer: segment payloads are intentionally not deep-copied.
	assert.Same(t, seg, out.Segments[0])

	out.Segments = append(out.Segments, &model.Segment{URI: "s2.m4s"})
	assert.Len(t, src.Segments, 1)
}

func TestNilIsSafe(t *testing.T) {
	assert.Nil(t, clone.Master(nil))
	assert.Nil(t, clone.Media(nil))
}
