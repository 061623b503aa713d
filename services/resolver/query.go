package resolver

import (
	"strings"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/matcher"
	"lyrics-resolver-go/services/normalize"

	log "github.com/sirupsen/logrus"
)

// Query is a validated lookup request. It is immutable once built.
type Query struct {
	trackName       string
	artistName      string
	normalizedTitle string
	artists         []string
}

// NewQuery validates and normalizes a (track, artist) request. Both values
// are required and the artist string must name at least one artist.
func NewQuery(trackName, artistName string) (Query, error) {
	trackName = strings.TrimSpace(trackName)
	artistName = strings.TrimSpace(artistName)

	if trackName == "" || artistName == "" {
		return Query{}, newError(ErrInvalidRequest, "trackName and artistName are both required", nil)
	}

	artists := normalize.Artists(artistName)
	if len(artists) == 0 {
		return Query{}, newError(ErrInvalidRequest, "artistName names no artist", nil)
	}

	q := Query{
		trackName:       trackName,
		artistName:      artistName,
		normalizedTitle: normalize.Title(trackName),
		artists:         artists,
	}
	log.Debugf("%s %q -> %q, artists %v", logcolors.LogNormalize, trackName, q.normalizedTitle, artists)
	return q, nil
}

// TrackName returns the title as requested.
func (q Query) TrackName() string { return q.trackName }

// ArtistName returns the artist string as requested.
func (q Query) ArtistName() string { return q.artistName }

// NormalizedTitle returns the canonical search title.
func (q Query) NormalizedTitle() string { return q.normalizedTitle }

// Artists returns a copy of the split artist names.
func (q Query) Artists() []string {
	return append([]string(nil), q.artists...)
}

func (q Query) matcherQuery() matcher.Query {
	return matcher.Query{
		NormalizedTitle: q.normalizedTitle,
		Artists:         q.artists,
		OriginalTitle:   q.trackName,
		OriginalArtist:  q.artistName,
	}
}
