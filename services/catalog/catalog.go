package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrNoMetadata is returned by FetchSongMetadata when the catalog has no song for the id.
var ErrNoMetadata = errors.New("catalog: no song metadata")

// Client defines the operations the resolver needs from a music catalog.
// Every call is a network operation and must honor ctx cancellation.
type Client interface {
	// Name returns the catalog's identifier (e.g., "qqmusic")
	Name() string

	// Search runs a keyword search and returns at most a handful of candidates,
	// in the catalog's own ranking order.
	Search(ctx context.Context, keyword string) ([]Candidate, error)

	// FetchSongMetadata looks up a single song by catalog id.
	FetchSongMetadata(ctx context.Context, catalogID string) (*Candidate, error)

	// FetchLyricPayload returns the base64 synced and translated lyric blobs.
	FetchLyricPayload(ctx context.Context, catalogID string) (*LyricBlobs, error)

	// FetchTimedLyricTransport returns the XML envelope carrying the encrypted
	// hex payload of the word-timed lyrics.
	FetchTimedLyricTransport(ctx context.Context, catalogID string) (string, error)
}

// Candidate is a catalog search result that has not yet been confirmed as the answer.
type Candidate struct {
	CatalogID       string `json:"mid"`
	InternalID      int64  `json:"id"`
	Title           string `json:"title"`
	ArtistDisplay   string `json:"artist"`
	AlbumName       string `json:"album"`
	DurationSeconds int    `json:"duration"`
}

// LyricKey returns the identifier lyric endpoints are queried with.
func (c Candidate) LyricKey() string {
	if c.CatalogID != "" {
		return c.CatalogID
	}
	if c.InternalID != 0 {
		return strconv.FormatInt(c.InternalID, 10)
	}
	return ""
}

// PayloadKind tags which lyric asset a payload carries.
type PayloadKind int

const (
	PayloadSynced PayloadKind = iota
	PayloadTranslated
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadSynced:
		return "synced"
	case PayloadTranslated:
		return "translated"
	default:
		return "unknown"
	}
}

// LyricPayload is a raw lyric blob tagged with its kind.
type LyricPayload struct {
	Kind PayloadKind
	Data string
}

// LyricBlobs holds the base64 lyric blobs returned by the lyric endpoint.
// Either field may be empty.
type LyricBlobs struct {
	Synced     string
	Translated string
}

// Payloads returns the non-empty blobs as tagged payloads, synced first.
func (b *LyricBlobs) Payloads() []LyricPayload {
	if b == nil {
		return nil
	}
	var out []LyricPayload
	if b.Synced != "" {
		out = append(out, LyricPayload{Kind: PayloadSynced, Data: b.Synced})
	}
	if b.Translated != "" {
		out = append(out, LyricPayload{Kind: PayloadTranslated, Data: b.Translated})
	}
	return out
}

// DecodeBlob decodes a base64 lyric blob with optional padding. Whitespace
// inside the blob is skipped. Invalid UTF-8 becomes U+FFFD.
func DecodeBlob(blob string) (string, error) {
	blob = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, blob)
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(blob, "="))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
}
