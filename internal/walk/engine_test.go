package walk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hlswalk/internal/loader"
	"hlswalk/internal/logger"
	"hlswalk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader serves canned responses from an in-memory map, standing in
// for the real HTTP/file loaders so these tests exercise only the
// engine's own state machine.
type fakeLoader struct {
	content map[string][]byte
}

func (f *fakeLoader) Load(_ context.Context, url string, _ loader.Options, cb func(loader.Result, error)) {
	data, ok := f.content[url]
	if !ok {
		cb(loader.Result{}, fmt.Errorf("fake loader: no content for %s", url))
		return
	}
	cb(loader.Result{Data: data, MimeType: "application/octet-stream"}, nil)
}

func drain(t *testing.T, e *Engine, timeout time.Duration) []model.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var events []model.Event
	for {
		ev, ok := e.Next(ctx)
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

const twoVariantMaster = `#EXTM3U
#EXT-X-VERSION:6
#EXT-X-STREAM-INF:BANDWIDTH=800000
low.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000
high.m3u8
`

func vodMedia(segA, segB string) string {
	return "#EXTM3U\n" +
		"#EXT-X-VERSION:6\n" +
		"#EXT-X-TARGETDURATION:6\n" +
		"#EXT-X-PLAYLIST-TYPE:VOD\n" +
		"#EXTINF:6.0,\n" + segA + "\n" +
		"#EXTINF:6.0,\n" + segB + "\n" +
		"#EXT-X-ENDLIST\n"
}

func TestEngine_VODMasterTwoVariants(t *testing.T) {
	root := "http://cdn.example.com/stream/"
	content := map[string][]byte{
		root + "master.m3u8": []byte(twoVariantMaster),
		root + "low.m3u8":    []byte(vodMedia("low-0.ts", "low-1.ts")),
		root + "high.m3u8":   []byte(vodMedia("high-0.ts", "high-1.ts")),
		root + "low-0.ts":    []byte("low-0-data"),
		root + "low-1.ts":    []byte("low-1-data"),
		root + "high-0.ts":   []byte("high-0-data"),
		root + "high-1.ts":   []byte("high-1-data"),
	}

	e := New(root+"master.m3u8", Options{
		Loader:                &fakeLoader{content: content},
		Logger:                logger.Discard,
		MasterPlaylistTimeout: 20 * time.Millisecond,
		Concurrency:           4,
	})

	events := drain(t, e, 5*time.Second)
	require.NotEmpty(t, events)

	var masters, medias, segments, errs int
	seenSegURIs := make(map[string]bool)
	for _, ev := range events {
		switch v := ev.(type) {
		case model.MasterPlaylistEvent:
			masters++
			assert.Len(t, v.Playlist.Variants, 2)
		case model.MediaPlaylistEvent:
			medias++
			assert.Len(t, v.Playlist.Segments, 2)
		case model.SegmentEvent:
			segments++
			assert.False(t, seenSegURIs[v.Segment.URI], "segment emitted twice: %s", v.Segment.URI)
			seenSegURIs[v.Segment.URI] = true
			assert.NotEmpty(t, v.Segment.Data)
		case model.ErrorEvent:
			errs++
			t.Logf("unexpected error event: %s: %v", v.URI, v.Err)
		}
	}

	assert.Equal(t, 1, masters, "master playlist must be emitted exactly once")
	assert.Equal(t, 2, medias)
	assert.Equal(t, 4, segments)
	assert.Zero(t, errs)
}

func TestEngine_VariantSelectionFiltersMediaFetches(t *testing.T) {
	root := "http://cdn.example.com/stream/"
	content := map[string][]byte{
		root + "master.m3u8": []byte(twoVariantMaster),
		root + "low.m3u8":    []byte(vodMedia("low-0.ts", "low-1.ts")),
		root + "low-0.ts":    []byte("low-0-data"),
		root + "low-1.ts":    []byte("low-1-data"),
		// high.m3u8 deliberately omitted: selection must never fetch it.
	}

	e := New(root+"master.m3u8", Options{
		Loader: &fakeLoader{content: content},
		Logger: logger.Discard,
		Variants: func(candidates []*model.Variant) []int {
			for i, v := range candidates {
				if v.Bandwidth == 800000 {
					return []int{i}
				}
			}
			return nil
		},
		MasterPlaylistTimeout: 20 * time.Millisecond,
	})

	events := drain(t, e, 5*time.Second)

	var medias, segments int
	for _, ev := range events {
		switch v := ev.(type) {
		case model.MediaPlaylistEvent:
			medias++
			assert.Equal(t, root+"low.m3u8", v.Playlist.URI)
		case model.SegmentEvent:
			segments++
		case model.ErrorEvent:
			t.Fatalf("unexpected error: %s: %v", v.URI, v.Err)
		}
	}
	assert.Equal(t, 1, medias)
	assert.Equal(t, 2, segments)
}

func TestEngine_SegmentKeyGatesEmission(t *testing.T) {
	root := "http://cdn.example.com/enc/"
	media := "#EXTM3U\n" +
		"#EXT-X-VERSION:6\n" +
		"#EXT-X-TARGETDURATION:6\n" +
		"#EXT-X-PLAYLIST-TYPE:VOD\n" +
		`#EXT-X-KEY:METHOD=AES-128,URI="key.bin"` + "\n" +
		"#EXTINF:6.0,\nseg0.ts\n" +
		"#EXTINF:6.0,\nseg1.ts\n" +
		"#EXT-X-ENDLIST\n"

	content := map[string][]byte{
		root + "index.m3u8": []byte(media),
		root + "seg0.ts":    []byte("seg0-data"),
		root + "seg1.ts":    []byte("seg1-data"),
		root + "key.bin":    []byte("0123456789abcdef"),
	}

	e := New(root+"index.m3u8", Options{
		Loader: &fakeLoader{content: content},
		Logger: logger.Discard,
	})

	events := drain(t, e, 5*time.Second)

	var segments int
	for _, ev := range events {
		switch v := ev.(type) {
		case model.SegmentEvent:
			segments++
			require.NotNil(t, v.Segment.Key)
			assert.NotEmpty(t, v.Segment.Key.Data, "segment must not emit before its key is loaded")
		case model.ErrorEvent:
			t.Fatalf("unexpected error: %s: %v", v.URI, v.Err)
		}
	}
	assert.Equal(t, 2, segments)
}

func TestEngine_ConsumerCloseStopsCleanly(t *testing.T) {
	root := "http://cdn.example.com/live/"
	content := map[string][]byte{
		root + "index.m3u8": []byte("#EXTM3U\n#EXT-X-VERSION:6\n#EXT-X-TARGETDURATION:1\n#EXTINF:1.0,\nseg0.ts\n"),
		root + "seg0.ts":    []byte("seg0-data"),
	}

	e := New(root+"index.m3u8", Options{
		Loader: &fakeLoader{content: content},
		Logger: logger.Discard,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := e.Next(ctx)
	require.True(t, ok)

	e.Close()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	for {
		_, ok := e.Next(closeCtx)
		if !ok {
			return
		}
	}
}
