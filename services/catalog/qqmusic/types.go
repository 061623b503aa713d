package qqmusic

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"lyrics-resolver-go/services/catalog"

	jsoniter "github.com/json-iterator/go"
)

// The catalog is loose about field types: ids and durations arrive as numbers
// or strings, singers as a list, an object or a bare string. Keys are matched
// case-sensitively because "songname" and "songName" are distinct fields.
var wire = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
	CaseSensitive:          true,
}.Froze()

// searchRequest is the JSON body of a keyword search.
type searchRequest struct {
	Req1 searchCall `json:"req_1"`
}

type searchCall struct {
	Method string      `json:"method"`
	Module string      `json:"module"`
	Param  searchParam `json:"param"`
}

type searchParam struct {
	NumPerPage int    `json:"num_per_page"`
	PageNum    int    `json:"page_num"`
	Query      string `json:"query"`
	SearchType int    `json:"search_type"`
}

func newSearchRequest(keyword string, limit int) searchRequest {
	return searchRequest{Req1: searchCall{
		Method: "DoSearchForQQMusicDesktop",
		Module: "music.search.SearchCgiService",
		Param: searchParam{
			NumPerPage: limit,
			PageNum:    1,
			Query:      keyword,
			SearchType: 0,
		},
	}}
}

// searchResponse mirrors req_1.data.body.song.list.
type searchResponse struct {
	Req1 struct {
		Data struct {
			Body struct {
				Song struct {
					List []songItem `json:"list"`
				} `json:"song"`
			} `json:"body"`
		} `json:"data"`
	} `json:"req_1"`
}

// songInfoResponse is the single-song metadata reply.
type songInfoResponse struct {
	Data []songItem `json:"data"`
}

// songItem is a song as the catalog returns it in search and metadata replies.
type songItem struct {
	ID       interface{} `json:"id"`
	MID      string      `json:"mid"`
	Song     string      `json:"song"`
	Name     string      `json:"name"`
	SongName string      `json:"songname"`
	Title    string      `json:"title"`
	AltName  string      `json:"songName"`
	Singer   interface{} `json:"singer"`
	Album    interface{} `json:"album"`
	Interval interface{} `json:"interval"`
}

// toCandidate flattens a songItem into the catalog-neutral Candidate.
func (s songItem) toCandidate() catalog.Candidate {
	return catalog.Candidate{
		CatalogID:       s.MID,
		InternalID:      toInt64(s.ID),
		Title:           s.displayTitle(),
		ArtistDisplay:   ArtistDisplay(s.Singer),
		AlbumName:       AlbumName(s.Album),
		DurationSeconds: ParseDuration(s.Interval),
	}
}

func (s songItem) displayTitle() string {
	for _, v := range []string{s.Song, s.Name, s.SongName, s.Title, s.AltName} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ArtistDisplay renders a singer field as a ", " separated list. Objects
// contribute their name, else title, else singer_name.
func ArtistDisplay(singer interface{}) string {
	switch v := singer.(type) {
	case nil:
		return ""
	case []interface{}:
		names := make([]string, 0, len(v))
		for _, s := range v {
			if name := singerName(s); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	default:
		return singerName(v)
	}
}

func singerName(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		return firstString(s, "name", "title", "singer_name")
	default:
		return scalarString(s)
	}
}

// AlbumName renders an album field, which is an object with a name or title,
// or a bare value.
func AlbumName(album interface{}) string {
	switch a := album.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		return firstString(a, "name", "title")
	default:
		return scalarString(a)
	}
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	case float64:
		return int64(n)
	}
	return 0
}

var minutesSeconds = regexp.MustCompile(`(\d+)分(\d+)秒`)

// ParseDuration converts a song interval to whole seconds. It accepts a
// number, "M:SS", "M分S秒" or a numeric string; anything else is 0.
func ParseDuration(interval interface{}) int {
	switch v := interval.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	case float64:
		return int(v)
	case int:
		return v
	case string:
		return parseDurationString(v)
	default:
		return 0
	}
}

func parseDurationString(s string) int {
	switch {
	case s == "":
		return 0
	case strings.Contains(s, "分") && strings.Contains(s, "秒"):
		m := minutesSeconds.FindStringSubmatch(s)
		if m == nil {
			return 0
		}
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		return minutes*60 + seconds
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		minutes, err1 := parseNumber(parts[0])
		seconds, err2 := parseNumber(parts[1])
		if err1 != nil || err2 != nil {
			return 0
		}
		return int(minutes*60 + seconds)
	default:
		f, err := parseNumber(s)
		if err != nil {
			return 0
		}
		return int(f)
	}
}

// parseNumber treats blank as zero, the way the catalog's own clients do.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// lyricEnvelope is the JSON inside the lyric endpoint's callback wrapper.
type lyricEnvelope struct {
	Lyric string `json:"lyric"`
	Trans string `json:"trans"`
}
