package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/catalog"
	"lyrics-resolver-go/services/normalize"

	log "github.com/sirupsen/logrus"
)

// Title score tiers, highest first.
const (
	TitleExactOriginal      = 100
	TitleExactNormalized    = 90
	TitleCloseOriginal      = 80
	TitleCloseNormalized    = 70
	TitleContainsOriginal   = 60
	TitleInOriginal         = 50
	TitleContainsNormalized = 40
	TitleInNormalized       = 30
)

// Artist score tiers, highest first.
const (
	ArtistExactOriginal     = 100
	ArtistExactNormalized   = 80
	ArtistPartialOriginal   = 60
	ArtistPartialNormalized = 40
)

// exactTitleFloor is the minimum combined score of a candidate whose title
// equals the original request title.
const exactTitleFloor = 95

var closeMatchNoise = regexp.MustCompile(`\(.*?\)| - .*|【.*?】`)

// Query is what a candidate is scored against.
type Query struct {
	NormalizedTitle string
	Artists         []string
	OriginalTitle   string
	OriginalArtist  string
}

// MatchScore is the per-candidate scoring breakdown.
type MatchScore struct {
	Candidate   catalog.Candidate
	TitleScore  int
	ArtistScore int
	Combined    float64
}

// Match picks at most one candidate for q.
//
// A candidate whose title and artist display both case-insensitively equal the
// original request wins outright. Otherwise the strictly highest positive
// combined score wins, ties going to the earlier candidate. When nothing
// scores above zero the first candidate is returned as a low-confidence
// fallback. Match returns false only for an empty candidate list.
func Match(candidates []catalog.Candidate, q Query) (catalog.Candidate, bool) {
	if len(candidates) == 0 {
		return catalog.Candidate{}, false
	}

	if exact, ok := FindExact(candidates, q.OriginalTitle, q.OriginalArtist); ok {
		log.Infof("%s Exact match: %s - %s", logcolors.LogMatch, exact.Title, exact.ArtistDisplay)
		return exact, true
	}

	var (
		best      catalog.Candidate
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		s := Score(c, q)
		log.Debugf("%s %q by %q: title=%d artist=%d combined=%.2f",
			logcolors.LogScore, c.Title, c.ArtistDisplay, s.TitleScore, s.ArtistScore, s.Combined)

		if s.Combined > bestScore {
			best, bestScore, found = c, s.Combined, true
		}
	}

	if found {
		log.Infof("%s %s - %s (score: %.2f)", logcolors.LogBestMatch, best.Title, best.ArtistDisplay, bestScore)
		return best, true
	}

	log.Warnf("%s No candidate scored above zero, using first result %q", logcolors.LogFallback, candidates[0].Title)
	return candidates[0], true
}

// FindExact returns the first candidate whose title and artist display both
// case-insensitively equal the original request.
func FindExact(candidates []catalog.Candidate, originalTitle, originalArtist string) (catalog.Candidate, bool) {
	title := strings.ToLower(originalTitle)
	artist := strings.ToLower(originalArtist)

	for _, c := range candidates {
		if c.Title == "" || c.ArtistDisplay == "" {
			continue
		}
		if strings.ToLower(c.Title) == title && strings.ToLower(c.ArtistDisplay) == artist {
			return c, true
		}
	}
	return catalog.Candidate{}, false
}

// Score computes the weighted score of one candidate. Combined is not clamped
// and can exceed 100 once bonuses stack.
func Score(c catalog.Candidate, q Query) MatchScore {
	s := MatchScore{Candidate: c}
	if c.Title == "" {
		return s
	}

	s.TitleScore = titleScore(c.Title, q)
	s.ArtistScore = artistScore(c.ArtistDisplay, q)
	s.Combined = combine(s.TitleScore, s.ArtistScore)
	return s
}

func titleScore(candidateTitle string, q Query) int {
	title := strings.ToLower(candidateTitle)
	original := strings.ToLower(q.OriginalTitle)
	normalized := strings.ToLower(q.NormalizedTitle)

	switch {
	case title == original:
		return TitleExactOriginal
	case title == normalized:
		return TitleExactNormalized
	case IsCloseMatch(title, original):
		return TitleCloseOriginal
	case IsCloseMatch(title, normalized):
		return TitleCloseNormalized
	case strings.Contains(title, original) && runeLen(original) > 3:
		return TitleContainsOriginal
	case strings.Contains(original, title) && runeLen(title) > 3:
		return TitleInOriginal
	case strings.Contains(title, normalized) && runeLen(normalized) > 3:
		return TitleContainsNormalized
	case strings.Contains(normalized, title) && runeLen(title) > 3:
		return TitleInNormalized
	default:
		return 0
	}
}

// artistScore is the maximum tier over every (requested artist, candidate token) pair.
func artistScore(display string, q Query) int {
	original := strings.ToLower(q.OriginalArtist)
	tokens := normalize.DisplayTokens(strings.ToLower(display))

	best := 0
	for _, target := range q.Artists {
		target = strings.ToLower(target)

		for _, token := range tokens {
			if token == "" {
				continue
			}

			var score int
			switch {
			case token == original:
				score = ArtistExactOriginal
			case token == target:
				score = ArtistExactNormalized
			case strings.Contains(token, original) || strings.Contains(original, token):
				score = ArtistPartialOriginal
			case strings.Contains(token, target) || strings.Contains(target, token):
				score = ArtistPartialNormalized
			}
			if score > best {
				best = score
			}
		}
	}
	return best
}

func combine(title, artist int) float64 {
	titleWeight, artistWeight := 0.6, 0.4
	if artist >= 80 && title >= 40 {
		titleWeight, artistWeight = 0.4, 0.6
	}
	if title >= 90 && artist >= 40 {
		titleWeight, artistWeight = 0.8, 0.2
	}

	total := float64(title)*titleWeight + float64(artist)*artistWeight

	if title == TitleExactOriginal && total < exactTitleFloor {
		total = exactTitleFloor
	}
	if title >= 70 && artist >= 80 {
		total += 15
	}
	if artist == ArtistExactOriginal && title >= 40 {
		total += 10
	}
	return total
}

// IsCloseMatch reports whether two lower-cased titles are equal once
// parenthetical, lenticular-bracket and dash-suffix noise is stripped, or
// whether a CJK target's leading CJK run appears in the candidate title.
func IsCloseMatch(candidateTitle, target string) bool {
	cleanCandidate := strings.TrimSpace(closeMatchNoise.ReplaceAllString(candidateTitle, ""))
	cleanTarget := strings.TrimSpace(closeMatchNoise.ReplaceAllString(target, ""))
	if cleanCandidate == cleanTarget {
		return true
	}

	if core := normalize.LeadingCJK(target); core != "" {
		return strings.Contains(candidateTitle, core)
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
