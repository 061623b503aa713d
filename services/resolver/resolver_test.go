package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"lyrics-resolver-go/services/catalog"
	"lyrics-resolver-go/services/mapping"
	"lyrics-resolver-go/services/yrc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves canned responses keyed by search keyword and catalog id.
type fakeCatalog struct {
	mu       sync.Mutex
	searches []string

	results     map[string][]catalog.Candidate
	searchErrs  map[string]error
	delays      map[string]time.Duration
	metadata    map[string]*catalog.Candidate
	blobs       map[string]*catalog.LyricBlobs
	transports  map[string]string
	payloadErr  error
	metadataErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		results:    map[string][]catalog.Candidate{},
		searchErrs: map[string]error{},
		delays:     map[string]time.Duration{},
		metadata:   map[string]*catalog.Candidate{},
		blobs:      map[string]*catalog.LyricBlobs{},
		transports: map[string]string{},
	}
}

func (f *fakeCatalog) Name() string { return "fake" }

func (f *fakeCatalog) Search(ctx context.Context, keyword string) ([]catalog.Candidate, error) {
	f.mu.Lock()
	f.searches = append(f.searches, keyword)
	delay := f.delays[keyword]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.searchErrs[keyword]; err != nil {
		return nil, err
	}
	return f.results[keyword], nil
}

func (f *fakeCatalog) FetchSongMetadata(_ context.Context, catalogID string) (*catalog.Candidate, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	meta, ok := f.metadata[catalogID]
	if !ok {
		return nil, catalog.ErrNoMetadata
	}
	return meta, nil
}

func (f *fakeCatalog) FetchLyricPayload(_ context.Context, catalogID string) (*catalog.LyricBlobs, error) {
	if f.payloadErr != nil {
		return nil, f.payloadErr
	}
	return f.blobs[catalogID], nil
}

func (f *fakeCatalog) FetchTimedLyricTransport(_ context.Context, catalogID string) (string, error) {
	envelope, ok := f.transports[catalogID]
	if !ok {
		return "", errors.New("transport unavailable")
	}
	return envelope, nil
}

func (f *fakeCatalog) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func mustQuery(t *testing.T, track, artist string) Query {
	t.Helper()
	q, err := NewQuery(track, artist)
	require.NoError(t, err)
	return q
}

func TestNewQuery(t *testing.T) {
	q := mustQuery(t, "  Song (Live Version) ", "Artist A, Artist B")
	assert.Equal(t, "Song (Live Version)", q.TrackName())
	assert.Equal(t, "Artist A, Artist B", q.ArtistName())
	assert.Equal(t, "Song", q.NormalizedTitle())
	assert.Equal(t, []string{"Artist A", "Artist B"}, q.Artists())

	q.Artists()[0] = "changed"
	assert.Equal(t, "Artist A", q.Artists()[0], "Artists must return a copy")
}

func TestNewQuery_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		track  string
		artist string
	}{
		{"empty track", "", "Artist"},
		{"blank track", "   ", "Artist"},
		{"empty artist", "Song", ""},
		{"separators only", "Song", " , , "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.track, tt.artist)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestResolve_DirectSearchAndFilteredLyrics(t *testing.T) {
	fake := newFakeCatalog()
	fake.results["Song Artist A"] = []catalog.Candidate{
		{CatalogID: "mid1", InternalID: 42, Title: "Song", ArtistDisplay: "Artist A", AlbumName: "Album", DurationSeconds: 200},
	}
	fake.blobs["mid1"] = &catalog.LyricBlobs{
		Synced:     b64("[ti:Song]\n[00:00.50]Lyricist: X\n[00:02.00]Hello\n[00:03.00]World"),
		Translated: b64("[00:02.00]你好\n[00:03.00]世界"),
	}

	r := New(fake, WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "Song (Live Version)", "Artist A, Artist B"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Song Artist A"}, fake.searched())
	assert.Equal(t, int64(42), result.ID)
	assert.Equal(t, "mid1", result.MID)
	assert.Equal(t, "Song", result.TrackName)
	assert.Equal(t, "Artist A", result.ArtistName)
	assert.Equal(t, "Album", result.AlbumName)
	assert.Equal(t, 200, result.Duration)
	assert.Equal(t, StrategyDirect, result.Strategy)
	assert.Equal(t, "Song Artist A", result.Keyword)
	assert.Equal(t, "[00:02.00]Hello\n[00:03.00]World", result.SyncedLyrics)
	assert.Equal(t, "[00:02.00]你好\n[00:03.00]世界", result.TranslatedLyrics)
	assert.Equal(t, "", result.YRCLyrics)
	assert.Equal(t, "", result.PlainLyrics)
	assert.False(t, result.Instrumental)
	assert.False(t, result.IsMapped)
}

func TestResolve_MappingSkipsSearch(t *testing.T) {
	fake := newFakeCatalog()
	fake.metadata["002QU4XI2cKwua"] = &catalog.Candidate{
		CatalogID: "002QU4XI2cKwua", Title: "天空之城", ArtistDisplay: "李志", AlbumName: "1701", DurationSeconds: 421,
	}
	fake.blobs["002QU4XI2cKwua"] = &catalog.LyricBlobs{Synced: b64("[00:10.00]歌词")}

	r := New(fake, WithMappings(mapping.Builtin()), WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "天空之城", "李志"))
	require.NoError(t, err)

	assert.Empty(t, fake.searched())
	assert.Equal(t, "002QU4XI2cKwua", result.ID)
	assert.Equal(t, "002QU4XI2cKwua", result.MID)
	assert.True(t, result.IsMapped)
	assert.Equal(t, StrategyMapping, result.Strategy)
	assert.Equal(t, "天空之城", result.OriginalTrackName)
	assert.Equal(t, "李志", result.OriginalArtistName)
	assert.Equal(t, "1701", result.AlbumName)
	assert.Equal(t, 421, result.Duration)
	assert.Equal(t, "[00:10.00]歌词", result.SyncedLyrics)
}

func TestResolve_MappingWithoutMetadataUsesRequestNames(t *testing.T) {
	fake := newFakeCatalog()
	fake.metadataErr = errors.New("metadata endpoint down")

	table := mapping.New(map[string]string{"Song_Artist": "mappedmid"})
	r := New(fake, WithMappings(table), WithStrategyDelay(0))

	result, err := r.Resolve(context.Background(), mustQuery(t, "Song", "Artist"))
	require.NoError(t, err)

	assert.Equal(t, "mappedmid", result.ID)
	assert.Equal(t, "Song", result.TrackName)
	assert.Equal(t, "Artist", result.ArtistName)
	assert.Equal(t, "", result.AlbumName)
	assert.True(t, result.Instrumental)
}

func TestResolve_EmptyResultsIsNotFound(t *testing.T) {
	fake := newFakeCatalog()
	r := New(fake, WithStrategyDelay(0))

	_, err := r.Resolve(context.Background(), mustQuery(t, "Nothing", "Nobody"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"Nothing Nobody"}, fake.searched())
}

func TestResolve_SearchErrorContinuesWithNextKeyword(t *testing.T) {
	fake := newFakeCatalog()
	fake.searchErrs["Song A"] = errors.New("boom")
	fake.results["Song B"] = []catalog.Candidate{{CatalogID: "midB", Title: "Song", ArtistDisplay: "B"}}

	r := New(fake, WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "Song", "A & B"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Song A", "Song B"}, fake.searched())
	assert.Equal(t, "midB", result.MID)
	assert.Equal(t, "Song B", result.Keyword)
	assert.Equal(t, "midB", result.ID, "a candidate without internal id reports its catalog id")
}

func TestResolve_AllSearchesFailIsNotFoundWithCause(t *testing.T) {
	cause := errors.New("catalog unreachable")
	fake := newFakeCatalog()
	fake.searchErrs["Song A"] = cause
	fake.searchErrs["Song B"] = cause

	r := New(fake, WithStrategyDelay(0))
	_, err := r.Resolve(context.Background(), mustQuery(t, "Song", "A, B"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrNotFound, rerr.Kind)
}

func TestResolve_ComplexTitleStrategyOrder(t *testing.T) {
	fake := newFakeCatalog()
	r := New(fake, WithStrategyDelay(0))

	_, err := r.Resolve(context.Background(), mustQuery(t, "夜に駆ける Remix", "YOASOBI, Ayase"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		"夜に駆ける YOASOBI",
		"夜に駆ける Ayase",
		"夜に駆ける Remix YOASOBI",
		"夜に駆ける Remix Ayase",
	}, fake.searched())
}

func TestResolve_ComplexTitleSecondStrategyHit(t *testing.T) {
	fake := newFakeCatalog()
	fake.results["夜に駆ける Remix YOASOBI"] = []catalog.Candidate{
		{CatalogID: "yoru", Title: "夜に駆ける (Remix)", ArtistDisplay: "YOASOBI"},
	}

	r := New(fake, WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "夜に駆ける Remix", "YOASOBI"))
	require.NoError(t, err)

	assert.Equal(t, StrategyNormalized, result.Strategy)
	assert.Equal(t, "yoru", result.MID)
}

func TestResolve_ConcurrentSearchKeepsKeywordOrder(t *testing.T) {
	fake := newFakeCatalog()
	fake.delays["Song A"] = 50 * time.Millisecond
	fake.results["Song A"] = []catalog.Candidate{{CatalogID: "first", Title: "Song", ArtistDisplay: "A"}}
	fake.results["Song B"] = []catalog.Candidate{{CatalogID: "second", Title: "Song", ArtistDisplay: "B"}}

	r := New(fake, WithStrategyDelay(0), WithConcurrentSearch(true))
	result, err := r.Resolve(context.Background(), mustQuery(t, "Song", "A, B"))
	require.NoError(t, err)

	assert.Equal(t, "first", result.MID)
	assert.ElementsMatch(t, []string{"Song A", "Song B"}, fake.searched())
}

func TestResolve_WordTimedLyrics(t *testing.T) {
	document := `<?xml version="1.0" encoding="utf-8"?><QrcInfos><LyricInfo LyricCount="1"><Lyric_1 LyricType="1" LyricContent="[0,500]Hi(0,500)"/></LyricInfo></QrcInfos>`
	payload, err := yrc.New().Encode(document)
	require.NoError(t, err)

	fake := newFakeCatalog()
	fake.results["Song Artist"] = []catalog.Candidate{{CatalogID: "mid", Title: "Song", ArtistDisplay: "Artist"}}
	fake.transports["mid"] = yrc.Envelope(payload)
	fake.payloadErr = errors.New("lyric endpoint down")

	r := New(fake, WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "Song", "Artist"))
	require.NoError(t, err)

	assert.Equal(t, "[0,500]Hi(0,500)", result.YRCLyrics)
	assert.Equal(t, "", result.SyncedLyrics)
	assert.True(t, result.Instrumental)
}

func TestResolve_BadPayloadsLeaveFieldsEmpty(t *testing.T) {
	fake := newFakeCatalog()
	fake.results["Song Artist"] = []catalog.Candidate{{CatalogID: "mid", Title: "Song", ArtistDisplay: "Artist"}}
	fake.blobs["mid"] = &catalog.LyricBlobs{Synced: "%%% not base64 %%%", Translated: b64("[00:01.00]ok")}
	fake.transports["mid"] = yrc.Envelope("zz-not-hex")

	r := New(fake, WithStrategyDelay(0))
	result, err := r.Resolve(context.Background(), mustQuery(t, "Song", "Artist"))
	require.NoError(t, err)

	assert.Equal(t, "", result.SyncedLyrics)
	assert.Equal(t, "[00:01.00]ok", result.TranslatedLyrics)
	assert.Equal(t, "", result.YRCLyrics)
	assert.False(t, result.Instrumental)
}

func TestResolve_CancelledContext(t *testing.T) {
	fake := newFakeCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(fake, WithStrategyDelay(0))
	_, err := r.Resolve(ctx, mustQuery(t, "夜に駆ける Remix", "YOASOBI"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveCatalogID_Empty(t *testing.T) {
	r := New(newFakeCatalog())
	_, err := r.ResolveCatalogID(context.Background(), "", mustQuery(t, "a", "b"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestResolve_MatchedSongWithoutID(t *testing.T) {
	fake := newFakeCatalog()
	fake.results["Song Artist"] = []catalog.Candidate{{Title: "Song", ArtistDisplay: "Artist"}}

	r := New(fake, WithStrategyDelay(0))
	_, err := r.Resolve(context.Background(), mustQuery(t, "Song", "Artist"))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestPlan(t *testing.T) {
	direct := plan(mustQuery(t, "Song", "A, B"))
	require.Len(t, direct, 1)
	assert.Equal(t, StrategyDirect, direct[0].name)
	assert.Equal(t, []string{"Song A", "Song B"}, direct[0].keywords)

	complexPlan := plan(mustQuery(t, "夜に駆ける Remix", "YOASOBI"))
	require.Len(t, complexPlan, 2)
	assert.Equal(t, StrategyCoreName, complexPlan[0].name)
	assert.Equal(t, StrategyNormalized, complexPlan[1].name)
}

func TestError_Message(t *testing.T) {
	err := newError(ErrNotFound, "no matching song in catalog", errors.New("timeout"))
	assert.Equal(t, "song not found: no matching song in catalog: timeout", err.Error())
	assert.Equal(t, "invalid request", newError(ErrInvalidRequest, "", nil).Error())
}
