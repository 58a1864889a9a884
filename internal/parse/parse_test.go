package parse_test

import (
	"testing"

	"hlswalk/internal/model"
	"hlswalk/internal/parse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterPlaylist = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aac",NAME="English",DEFAULT=YES,URI="audio/en/index.m3u8"
#EXT-X-SESSION-DATA:DATA-ID="com.example.title",VALUE="Example Show"
#EXT-X-STREAM-INF:BANDWIDTH=800000,CODECS="avc1.4d401e,mp4a.40.2"
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,CODECS="avc1.4d401f,mp4a.40.2"
high/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-TARGETDURATION:6
#EXT-X-PLAYLIST-TYPE:VOD
#EXT-X-MAP:URI="init.mp4"
#EXTINF:6.000,
seg0.m4s
#EXTINF:6.000,
seg1.m4s
#EXT-X-ENDLIST
`

func TestParse_Master(t *testing.T) {
	result, err := parse.Parse("http://cdn.example.com/stream/master.m3u8", []byte(masterPlaylist))
	require.NoError(t, err)
	require.NotNil(t, result.Master)
	require.Nil(t, result.Media)

	m := result.Master
	require.Len(t, m.Variants, 2)
	assert.Equal(t, "http://cdn.example.com/stream/low/index.m3u8", m.Variants[0].URI)
	assert.Equal(t, "http://cdn.example.com/stream/high/index.m3u8", m.Variants[1].URI)
	assert.EqualValues(t, 800000, m.Variants[0].Bandwidth)

	require.Len(t, m.Renditions[model.RenditionAudio], 1)
	assert.Equal(t, "http://cdn.example.com/stream/audio/en/index.m3u8", m.Renditions[model.RenditionAudio][0].URI)

	require.Len(t, m.SessionData, 1)
	assert.Equal(t, "Example Show", m.SessionData[0].Value)
	assert.True(t, m.SessionData[0].Resolved(), "inline session data never blocks the gate")
	assert.NotEmpty(t, m.Hash)
}

func TestParse_Media(t *testing.T) {
	result, err := parse.Parse("http://cdn.example.com/stream/low/index.m3u8", []byte(mediaPlaylist))
	require.NoError(t, err)
	require.NotNil(t, result.Media)

	mp := result.Media
	assert.True(t, mp.Terminal())
	assert.Equal(t, model.PlaylistTypeVOD, mp.Type)
	require.Len(t, mp.Segments, 2)
	assert.Equal(t, "http://cdn.example.com/stream/low/seg0.m4s", mp.Segments[0].URI)
	require.NotNil(t, mp.Segments[0].Map)
	assert.Equal(t, "http://cdn.example.com/stream/low/init.mp4", mp.Segments[0].Map.URI)
	assert.Same(t, mp.Segments[0].Map, mp.Segments[1].Map, "shared EXT-X-MAP is the same instance across segments")
}

func TestParse_InvalidPlaylist(t *testing.T) {
	_, err := parse.Parse("http://cdn.example.com/bad.m3u8", []byte("not a playlist at all"))
	assert.Error(t, err)
}
