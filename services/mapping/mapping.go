package mapping

import (
	"fmt"
	"os"
	"strings"

	"lyrics-resolver-go/logcolors"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

// builtin pins songs the catalog search is known to get wrong.
// Keys are "<title>_<artist>", values are catalog ids.
var builtin = map[string]string{
	"無條件_陳奕迅":   "001HpGqo4daJ21",
	"一樣的月光_徐佳瑩": "001KyJTt1kbkfP",
	"拉过勾的_陸虎":   "004QCuMF2nVaxn",
	"人生馬拉松_陳奕迅": "004J2NXe3bwkjk",

	"天空之城_李志":    "002QU4XI2cKwua",
	"關於鄭州的記憶_李志": "002KPXam27DeEJ",

	"大碗宽面_吳亦凡":          "001JceuO3lQbyN",
	"November Rain_吳亦凡": "000RQ1Hy29awJd",
	"July_吳亦凡":          "001fszA13qSD04",

	"La La La_Naughty Boy": "0000TrG33CVLrW",
}

// Table is a read-only (title, artist) to catalog id lookup.
type Table struct {
	entries map[string]string
}

// New returns a table holding a copy of entries.
func New(entries map[string]string) *Table {
	t := &Table{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// Builtin returns the table of built-in mappings.
func Builtin() *Table {
	return New(builtin)
}

// Load returns the built-in table, merged with the JSON object in path when
// path is set. File entries win over built-in ones.
func Load(path string) (*Table, error) {
	t := Builtin()
	if path == "" {
		return t, nil
	}

	extra, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	merged := t.Merge(extra)
	log.Infof("%s Loaded %d mapping(s) from %s (%d total)", logcolors.LogMapping, len(extra), path, merged.Len())
	return merged, nil
}

// ReadFile reads a JSON object of "<title>_<artist>": "<catalog id>" pairs.
func ReadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var entries map[string]string
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	for k, v := range entries {
		if strings.TrimSpace(v) == "" || !strings.Contains(k, "_") {
			return nil, fmt.Errorf("invalid mapping entry %q: %q", k, v)
		}
	}
	return entries, nil
}

// Merge returns a new table with extra layered over t.
func (t *Table) Merge(extra map[string]string) *Table {
	merged := New(t.entries)
	for k, v := range extra {
		merged.entries[k] = v
	}
	return merged
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Key builds a lookup key.
func Key(title, artist string) string {
	return title + "_" + artist
}

// CandidateKeys lists the keys Lookup tries, in order: the normalized and
// raw title against the first split artist and the raw artist string, then
// the same four with the title lower-cased.
func CandidateKeys(normTitle string, artists []string, rawTitle, rawArtist string) []string {
	first := ""
	if len(artists) > 0 {
		first = artists[0]
	}

	pairs := [][2]string{
		{normTitle, first},
		{rawTitle, rawArtist},
		{normTitle, rawArtist},
		{rawTitle, first},
	}

	keys := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		keys = append(keys, Key(p[0], p[1]))
	}
	for _, p := range pairs {
		keys = append(keys, Key(strings.ToLower(p[0]), p[1]))
	}
	return keys
}

// Lookup returns the catalog id of the first candidate key present in the
// table, along with that key.
func (t *Table) Lookup(normTitle string, artists []string, rawTitle, rawArtist string) (id, key string, ok bool) {
	if t == nil {
		return "", "", false
	}

	for _, k := range CandidateKeys(normTitle, artists, rawTitle, rawArtist) {
		if id, ok := t.entries[k]; ok {
			log.Debugf("%s Hit %s -> %s", logcolors.LogMapping, k, id)
			return id, k, true
		}
	}
	return "", "", false
}
