package resolver

import (
	"strings"

	"lyrics-resolver-go/services/catalog"
)

// Strategy names how a song was found.
type Strategy string

const (
	StrategyMapping    Strategy = "mapping"
	StrategyDirect     Strategy = "direct"
	StrategyCoreName   Strategy = "core-name"
	StrategyNormalized Strategy = "normalized"
)

// Result is the resolved song with its cleaned lyrics.
type Result struct {
	// ID is the catalog's numeric id for searched songs and the catalog id
	// string for mapped ones.
	ID               interface{} `json:"id"`
	MID              string      `json:"mid"`
	Name             string      `json:"name"`
	TrackName        string      `json:"trackName"`
	ArtistName       string      `json:"artistName"`
	AlbumName        string      `json:"albumName"`
	Duration         int         `json:"duration"`
	Instrumental     bool        `json:"instrumental"`
	PlainLyrics      string      `json:"plainLyrics"`
	SyncedLyrics     string      `json:"syncedLyrics"`
	TranslatedLyrics string      `json:"translatedLyrics"`
	YRCLyrics        string      `json:"yrcLyrics"`

	IsMapped           bool   `json:"isMapped,omitempty"`
	OriginalTrackName  string `json:"originalTrackName,omitempty"`
	OriginalArtistName string `json:"originalArtistName,omitempty"`

	Strategy Strategy `json:"-"`
	Keyword  string   `json:"-"`
}

// lyrics is the decoded lyric set of one song.
type lyrics struct {
	synced     string
	translated string
	wordTimed  string
}

// instrumental reports a song with neither synced nor translated lyrics.
func (l lyrics) instrumental() bool {
	return strings.TrimSpace(l.synced) == "" && strings.TrimSpace(l.translated) == ""
}

func newResult(c catalog.Candidate, q Query, l lyrics) *Result {
	var id interface{} = c.InternalID
	if c.InternalID == 0 {
		id = c.CatalogID
	}

	title := c.Title
	if title == "" {
		title = q.trackName
	}

	return &Result{
		ID:               id,
		MID:              c.CatalogID,
		Name:             title,
		TrackName:        title,
		ArtistName:       c.ArtistDisplay,
		AlbumName:        c.AlbumName,
		Duration:         c.DurationSeconds,
		Instrumental:     l.instrumental(),
		SyncedLyrics:     l.synced,
		TranslatedLyrics: l.translated,
		YRCLyrics:        l.wordTimed,
	}
}

// newMappedResult builds the result of a mapping hit. meta may be nil when
// the catalog had no metadata for the id.
func newMappedResult(catalogID string, meta *catalog.Candidate, q Query, l lyrics) *Result {
	r := &Result{
		ID:                 catalogID,
		MID:                catalogID,
		Name:               q.trackName,
		TrackName:          q.trackName,
		ArtistName:         q.artistName,
		Instrumental:       l.instrumental(),
		SyncedLyrics:       l.synced,
		TranslatedLyrics:   l.translated,
		YRCLyrics:          l.wordTimed,
		IsMapped:           true,
		OriginalTrackName:  q.trackName,
		OriginalArtistName: q.artistName,
		Strategy:           StrategyMapping,
	}

	if meta != nil {
		if meta.Title != "" {
			r.Name, r.TrackName = meta.Title, meta.Title
		}
		r.ArtistName = meta.ArtistDisplay
		r.AlbumName = meta.AlbumName
		r.Duration = meta.DurationSeconds
	}
	return r
}
