package outline

import (
	"math"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Rule names, in precedence order.
const (
	RuleCanonical     = "canonical"
	RuleBareNumber    = "bare-number"
	RuleDeferredMerge = "deferred-merge"
	RuleNumbered      = "numbered"
)

var (
	// A dotted numeral with an optional trailing period: "2", "2.3", "2.3.".
	bareNumberRe = regexp.MustCompile(`^(\p{Nd}+(?:\.\p{Nd}+)*)(\.?)$`)
	// Capitalised, at least three characters, letters/digits/space/hyphen/parens.
	titleRe = regexp.MustCompile(`^[A-Z][a-zA-Z0-9\-\s\p{Zs}\(\)]{2,}$`)
	// Numeral and title in one fragment: "2.3 Methodology", "4. Results".
	numberedRe = regexp.MustCompile(`^(\p{Nd}+(?:\.\p{Nd}+)*)(\.?)[\s\p{Zs}]+([A-Z][a-zA-Z0-9\-\s\p{Zs}\(\)]{2,})$`)
)

// pendingNumber is a bare section number waiting for its title.
type pendingNumber struct {
	number string // fragment text as written, e.g. "2.3."
	depth  int    // every dot counts, so "2.3." is 3
	bottom float64
	page   int // 0-based
}

// rule pairs a predicate with the action taken when it matches.
type rule struct {
	name   string
	match  func(s *scan, f doctree.Fragment) bool
	action func(s *scan, f doctree.Fragment)
}

// defaultRules is evaluated top to bottom; the first match wins. Canonical
// names come first so that a stray number followed by "Conclusion" is not
// read as "<n> Conclusion".
var defaultRules = []rule{
	{
		name: RuleCanonical,
		match: func(s *scan, f doctree.Fragment) bool {
			return s.ex.isCanonical(f.Text)
		},
		action: func(s *scan, f doctree.Fragment) {
			s.emit(1, f.Text, f.Page)
		},
	},
	{
		name: RuleBareNumber,
		match: func(s *scan, f doctree.Fragment) bool {
			return bareNumberRe.MatchString(f.Text)
		},
		action: func(s *scan, f doctree.Fragment) {
			s.pending = &pendingNumber{
				number: f.Text,
				depth:  strings.Count(f.Text, ".") + 1,
				bottom: f.Bottom,
				page:   f.Page,
			}
		},
	},
	{
		name: RuleDeferredMerge,
		match: func(s *scan, f doctree.Fragment) bool {
			p := s.pending
			if p == nil {
				return false
			}
			if p.page != f.Page && !s.ex.opts.AllowCrossPageMerge {
				return false
			}
			if math.Abs(f.Top-p.bottom) >= s.ex.opts.ProximityThreshold {
				return false
			}
			return titleRe.MatchString(f.Text)
		},
		action: func(s *scan, f doctree.Fragment) {
			p := s.pending
			s.emit(p.depth, strings.TrimSpace(p.number+" "+f.Text), p.page)
		},
	},
	{
		name: RuleNumbered,
		match: func(s *scan, f doctree.Fragment) bool {
			return numberedRe.MatchString(f.Text)
		},
		action: func(s *scan, f doctree.Fragment) {
			m := numberedRe.FindStringSubmatch(f.Text)
			s.emit(Depth(m[1]), f.Text, f.Page)
		},
	},
}

// Depth returns the nesting depth of a dotted numeral: "3" is 1, "3.2" is 2.
// A trailing period does not add a level. A split number waiting for its
// title is different: there every dot in the number counts.
func Depth(numeral string) int {
	return strings.Count(strings.TrimSuffix(numeral, "."), ".") + 1
}

func (e *Extractor) isCanonical(text string) bool {
	for _, h := range e.canonical {
		if strings.EqualFold(text, h) {
			return true
		}
	}
	return false
}

// scan is the state of one extraction run.
type scan struct {
	ex       *Extractor
	pending  *pendingNumber
	headings []Heading
}

// classify applies the rule table to one fragment and returns the name of
// the rule that fired, or "" when none did. Blank fragments are ignored
// without touching the pending number; any other miss discards it.
func (s *scan) classify(f doctree.Fragment) string {
	f.Text = strings.TrimSpace(f.Text)
	if f.Text == "" {
		return ""
	}
	for _, r := range s.ex.rules {
		if r.match(s, f) {
			r.action(s, f)
			return r.name
		}
	}
	s.pending = nil
	return ""
}

// emit appends a heading and clears the pending number.
func (s *scan) emit(depth int, text string, page int) {
	s.headings = append(s.headings, Heading{
		Level: Level(depth),
		Text:  text,
		Page:  page + 1,
	})
	s.pending = nil
}
