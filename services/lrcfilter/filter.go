package lrcfilter

import (
	"regexp"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Report describes what a filter run removed.
type Report struct {
	// Parsed is the number of timed lines after header removal.
	Parsed int
	// Dropped counts removed lines per pass name.
	Dropped map[string]int
	// RemovedColonText holds the plain text of every line dropped for
	// carrying a colon, in removal order.
	RemovedColonText []string
}

// state is threaded through the passes of one filter run.
type state struct {
	lines []Line

	// headColonRemoved is set when the head-colon pass dropped a line.
	headColonRemoved bool
	removedColonText []string
}

func (s *state) removeAt(i int) Line {
	l := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return l
}

// dropWithinHead repeatedly removes lines matching pred while they sit among
// the first limit lines, rescanning the shrunken head after each removal.
func (s *state) dropWithinHead(limit int, pred func(Line) bool, onDrop func(Line)) {
	i := 0
	for i < min(limit, len(s.lines)) {
		if pred(s.lines[i]) {
			l := s.removeAt(i)
			if onDrop != nil {
				onDrop(l)
			}
			continue
		}
		i++
	}
}

func (s *state) keep(pred func(Line) bool) {
	kept := s.lines[:0]
	for _, l := range s.lines {
		if pred(l) {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

// Pass is one named step of the filter. Passes run in order and each sees the
// output of the previous one.
type Pass struct {
	Name  string
	apply func(*state)
}

var (
	// TitleDashPass drops lines whose plain text has a dash while they are
	// among the first three lines.
	TitleDashPass = Pass{Name: "title-dash", apply: func(s *state) {
		s.dropWithinHead(3, func(l Line) bool { return containsDash(l.PlainText) }, nil)
	}}

	// HeadColonPass drops colon lines while they are among the first three lines.
	HeadColonPass = Pass{Name: "head-colon", apply: func(s *state) {
		s.dropWithinHead(3, func(l Line) bool { return containsColon(l.PlainText) }, func(l Line) {
			s.removedColonText = append(s.removedColonText, l.PlainText)
			s.headColonRemoved = true
		})
	}}

	// LeadingColonRunPass drops the run of colon lines at the start. The run
	// must be at least two lines long unless HeadColonPass already removed one.
	LeadingColonRunPass = Pass{Name: "leading-colon-run", apply: func(s *state) {
		n := 0
		for n < len(s.lines) && containsColon(s.lines[n].PlainText) {
			n++
		}

		threshold := 2
		if s.headColonRemoved {
			threshold = 1
		}
		if n < threshold {
			return
		}

		for _, l := range s.lines[:n] {
			s.removedColonText = append(s.removedColonText, l.PlainText)
		}
		s.lines = s.lines[n:]
	}}

	// ColonRunPass drops every run of two or more consecutive colon lines.
	// A lone colon line is kept.
	ColonRunPass = Pass{Name: "colon-run", apply: func(s *state) {
		out := make([]Line, 0, len(s.lines))
		for i := 0; i < len(s.lines); {
			if !containsColon(s.lines[i].PlainText) {
				out = append(out, s.lines[i])
				i++
				continue
			}

			j := i
			for j < len(s.lines) && containsColon(s.lines[j].PlainText) {
				j++
			}
			if j-i >= 2 {
				for _, l := range s.lines[i:j] {
					s.removedColonText = append(s.removedColonText, l.PlainText)
				}
			} else {
				out = append(out, s.lines[i])
			}
			i = j
		}
		s.lines = out
	}}

	// BracketPass drops lines carrying a square or lenticular bracket pair.
	BracketPass = Pass{Name: "bracket", apply: func(s *state) {
		s.keep(func(l Line) bool { return !containsBracketPair(l.PlainText) })
	}}

	// HeadParenPass drops lines with a parenthesis pair while they are among
	// the first two lines.
	HeadParenPass = Pass{Name: "head-paren", apply: func(s *state) {
		s.dropWithinHead(2, func(l Line) bool { return containsParenPair(l.PlainText) }, nil)
	}}

	// LicensePass drops provider copyright and usage notices.
	LicensePass = Pass{Name: "license", apply: func(s *state) {
		s.keep(func(l Line) bool { return !IsLicenseLine(l.PlainText) })
	}}

	// CleanupPass drops empty lines and bare "//" markers.
	CleanupPass = Pass{Name: "cleanup", apply: func(s *state) {
		s.keep(func(l Line) bool { return !isEmptyLine(l) })
	}}
)

var (
	bareSlashes      = regexp.MustCompile(`^//\s*$`)
	timestampSlashes = regexp.MustCompile(`^\[\d+:\d+(\.\d+)?\]\s*//\s*$`)
	timestampOnly    = regexp.MustCompile(`^\[\d+:\d+(\.\d+)?\]\s*$`)
)

func isEmptyLine(l Line) bool {
	switch {
	case l.PlainText == "", l.PlainText == "//":
		return true
	case bareSlashes.MatchString(l.PlainText):
		return true
	case timestampSlashes.MatchString(l.Raw), timestampOnly.MatchString(l.Raw):
		return true
	default:
		return false
	}
}

// DefaultPasses is the filter's pass order. The order is significant.
var DefaultPasses = []Pass{
	TitleDashPass,
	HeadColonPass,
	LeadingColonRunPass,
	ColonRunPass,
	BracketPass,
	HeadParenPass,
	LicensePass,
	CleanupPass,
}

// Filter removes headers, credits, copyright notices and malformed lines from
// time-stamped lyric text.
type Filter struct {
	passes []Pass
}

// New returns a Filter running DefaultPasses.
func New() *Filter {
	return &Filter{passes: DefaultPasses}
}

// NewWithPasses returns a Filter running the given passes in order.
func NewWithPasses(passes ...Pass) *Filter {
	return &Filter{passes: passes}
}

// Clean filters text with DefaultPasses.
func Clean(text string) string {
	out, _ := New().Run(text)
	return out
}

// Run filters text and reports what each pass removed. Surviving lines keep
// their original order and raw form.
func (f *Filter) Run(text string) (string, Report) {
	report := Report{Dropped: make(map[string]int, len(f.passes))}
	if text == "" {
		return "", report
	}

	s := &state{lines: Parse(text)}
	report.Parsed = len(s.lines)

	for _, p := range f.passes {
		before := len(s.lines)
		p.apply(s)
		if dropped := before - len(s.lines); dropped > 0 {
			report.Dropped[p.Name] += dropped
			log.Debugf("%s %s dropped %d line(s)", logcolors.LogFilter, p.Name, dropped)
		}
	}

	report.RemovedColonText = s.removedColonText
	log.Debugf("%s kept %d of %d line(s)", logcolors.LogFilter, len(s.lines), report.Parsed)

	return Join(s.lines), report
}
