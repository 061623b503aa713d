package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Rule is a single pattern-removal step of the title normalizer.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Apply removes every match of the rule's pattern from title.
func (r Rule) Apply(title string) string {
	return r.Pattern.ReplaceAllString(title, "")
}

func rule(name, expr string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(expr)}
}

// TitleRules is the ordered rule list. Each rule operates on the output of the previous one.
var TitleRules = []Rule{
	rule("game-tieup", `(?i) - genshin impact's.*$`),
	rule("anniversary", `(?i) - .*anniversary.*$`),
	rule("theme-song", `(?i) - .*theme song.*$`),
	rule("japanese", `(?i) - .*japanese.*$`),
	rule("version", `(?i) - .*version.*$`),
	rule("quoted-subtitle-suffix", ` - 《.*?》.*$`),
	rule("anime-suffix", ` - .*动画.*$`),
	rule("drama-suffix", ` - .*剧集.*$`),
	rule("theme-suffix", ` - .*主题曲.*$`),
	rule("parenthetical", `\(.*?\)`),
	rule("from-the", `(?i) - from the.*$`),
	rule("official", `(?i) - official.*$`),
	rule("from-paren", `(?i) \(from.*\)`),
	rule("remastered", `(?i) - remastered.*$`),
	rule("mix", `(?i) - .*mix.*$`),
	rule("edit", `(?i) - .*edit.*$`),
	rule("quoted-subtitle", `《.*?》`),
	rule("triple-dash", `---`),
	rule("triple-em-dash", `———`),
	rule("trailing-dash", ` - $`),
}

var (
	whitespaceRun      = regexp.MustCompile(`\s+`)
	trailingSeparators = regexp.MustCompile(`[-\s]+$`)
	fallbackSeparator  = regexp.MustCompile(`[-\s–—]`)
	coreSeparator      = regexp.MustCompile(`[-\s–—|]`)

	// cjkRun matches kana and CJK unified ideographs.
	cjkRun      = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FFF}]+`)
	latinTitle  = regexp.MustCompile(`^[a-zA-Z\s.,!?'"-]+$`)
	complexMark = regexp.MustCompile(`(?i) - | – | — |\(|\)|《|》|动画|剧集|主题曲|anniversary|theme song|version|remastered|mix|edit|致.*先生|———`)
)

// Title strips promotional and version annotations from a raw title and returns
// the canonical search key.
func Title(raw string) string {
	processed := settle(whitespaceRun.ReplaceAllString(raw, " "))
	if processed != "" {
		return processed
	}

	// The leading segment goes through the rules too, otherwise a second
	// pass over the result could still shorten it.
	segment := strings.TrimSpace(fallbackSeparator.Split(raw, 2)[0])
	if settled := settle(segment); settled != "" {
		segment = settled
	}
	log.Debugf("%s title emptied by rules, using leading segment %q", logcolors.LogNormalize, segment)
	return segment
}

// settle reapplies the rule list until the title stops changing. A later rule
// can expose a match for an earlier one ("A (x)- version"). Rules only remove
// text, so this terminates.
func settle(title string) string {
	for {
		next := applyRules(title)
		if next == title {
			return title
		}
		title = next
	}
}

func applyRules(title string) string {
	for _, r := range TitleRules {
		before := title
		title = r.Apply(title)
		if before != title {
			log.Debugf("%s rule %s: %q -> %q", logcolors.LogNormalize, r.Name, before, title)
		}
	}

	title = whitespaceRun.ReplaceAllString(title, " ")
	title = trailingSeparators.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// IsComplex reports whether a normalized title still carries annotations that
// make a direct keyword search unreliable.
func IsComplex(title string) bool {
	return utf8.RuneCountInString(title) > 30 || complexMark.MatchString(title)
}

// HasCJK reports whether s contains kana or CJK ideographs.
func HasCJK(s string) bool {
	return cjkRun.MatchString(s)
}

// LeadingCJK returns the first maximal run of kana or CJK ideographs in s, or "".
func LeadingCJK(s string) string {
	return cjkRun.FindString(s)
}

// CoreName reduces a title to the shortest form worth searching for.
//
// Latin-script titles use their normalized form when it is strictly shorter.
// Titles with CJK script use their first CJK run. Anything else uses the
// normalized form when shorter, else the first separator-delimited segment.
func CoreName(title string) string {
	if latinTitle.MatchString(title) {
		if processed := Title(title); processed != "" && utf8.RuneCountInString(processed) < utf8.RuneCountInString(title) {
			return processed
		}
		return title
	}

	if HasCJK(title) {
		return LeadingCJK(title)
	}

	if processed := Title(title); processed != "" && utf8.RuneCountInString(processed) < utf8.RuneCountInString(title) {
		return processed
	}
	if head := coreSeparator.Split(title, 2)[0]; head != "" {
		return head
	}
	return title
}
