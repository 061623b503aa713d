package lrcfilter

import (
	"regexp"
	"strings"
)

// Line is one time-stamped lyric line.
type Line struct {
	// Raw is the line exactly as it appeared in the input.
	Raw string
	// Timestamp is the leading bracketed tag, e.g. "[00:12.34]".
	Timestamp string
	// Text is everything after Timestamp, trimmed.
	Text string
	// PlainText is Text with inline bracket tags removed.
	PlainText string
}

var (
	headerTag  = regexp.MustCompile(`(?i)^\[(ti|ar|al|by|offset|t_time|kana|lang|total):.*\]$`)
	timedLine  = regexp.MustCompile(`^(\[[0-9:.]+\])(.*)$`)
	inlineTags = regexp.MustCompile(`\[.*?\]`)
)

// Parse splits text into timed lines. Header tag lines are dropped, as is any
// line without a leading numeric timestamp tag.
func Parse(text string) []Line {
	rawLines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, 0, len(rawLines))

	for _, raw := range rawLines {
		if headerTag.MatchString(strings.TrimSpace(raw)) {
			continue
		}

		m := timedLine.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		body := strings.TrimSpace(m[2])
		lines = append(lines, Line{
			Raw:       raw,
			Timestamp: m[1],
			Text:      body,
			PlainText: inlineTags.ReplaceAllString(body, ""),
		})
	}

	return lines
}

// Join rejoins the raw form of lines with "\n".
func Join(lines []Line) string {
	raws := make([]string, len(lines))
	for i, l := range lines {
		raws[i] = l.Raw
	}
	return strings.Join(raws, "\n")
}

func containsColon(s string) bool {
	return strings.ContainsAny(s, ":：")
}

func containsDash(s string) bool {
	return strings.Contains(s, "-")
}

func containsBracketPair(s string) bool {
	return (strings.Contains(s, "[") && strings.Contains(s, "]")) ||
		(strings.Contains(s, "【") && strings.Contains(s, "】"))
}

func containsParenPair(s string) bool {
	return (strings.Contains(s, "(") && strings.Contains(s, ")")) ||
		(strings.Contains(s, "（") && strings.Contains(s, "）"))
}

// licensePhrases mark a license line on their own.
var licensePhrases = []string{"文曲大模型", "享有本翻译作品的著作权"}

// licenseTokens mark a license line when at least licenseTokenThreshold of them appear.
var licenseTokens = []string{"未经", "许可", "授权", "不得", "请勿", "使用", "版权", "翻唱"}

const licenseTokenThreshold = 3

// IsLicenseLine reports whether s reads like a provider copyright or usage notice.
func IsLicenseLine(s string) bool {
	if s == "" {
		return false
	}
	for _, phrase := range licensePhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}

	hits := 0
	for _, token := range licenseTokens {
		if strings.Contains(s, token) {
			hits++
		}
	}
	return hits >= licenseTokenThreshold
}
