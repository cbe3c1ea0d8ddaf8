// Package outline infers a heading outline from positioned text fragments.
//
// Headings are recognised by shape alone: canonical section names
// ("Abstract", "Conclusion"), numbered headings ("2.3 Methodology"), and
// numbers rendered as a separate block just above or beside their title.
// Nesting depth comes from the number of dots in the section number.
package outline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Source supplies the fragments of one document, page by page.
type Source interface {
	NumPages() int
	// Page returns the fragments of page i (0-based) in any order.
	Page(i int) ([]doctree.Fragment, error)
	// MetadataTitle returns the embedded document title, or "".
	MetadataTitle() string
}

// Heading is one entry of an outline.
type Heading struct {
	Level string `json:"level"` // "H1".."Hn"
	Text  string `json:"text"`
	Page  int    `json:"page"` // 1-based
}

// Outline is the result of extracting one document.
type Outline struct {
	Title   string    `json:"title"`
	Outline []Heading `json:"outline"`
}

// DefaultCanonicalHeadings are section names treated as top-level headings
// when they stand alone, compared case-insensitively.
var DefaultCanonicalHeadings = []string{
	"Abstract",
	"Introduction",
	"Related Works",
	"Methodology",
	"Results",
	"Conclusion",
	"References",
	"Acknowledgements",
}

// DefaultProximityThreshold is the largest vertical distance, in layout
// units, between a bare section number and the title it belongs to.
const DefaultProximityThreshold = 25.0

// Options tunes heading detection.
type Options struct {
	// ProximityThreshold is the maximum distance between a bare number's
	// bottom and the following fragment's top for the two to merge.
	ProximityThreshold float64
	// CanonicalHeadings is the closed vocabulary of unnumbered headings.
	CanonicalHeadings []string
	// AllowCrossPageMerge lets a number at the end of one page merge with a
	// title at the start of the next, as long as the coordinates are close.
	AllowCrossPageMerge bool
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		ProximityThreshold:  DefaultProximityThreshold,
		CanonicalHeadings:   append([]string(nil), DefaultCanonicalHeadings...),
		AllowCrossPageMerge: true,
	}
}

// Extractor classifies fragments into headings. It holds no per-document
// state and is safe for concurrent use.
type Extractor struct {
	opts      Options
	canonical []string
	rules     []rule
}

// New returns an Extractor. A non-positive threshold or an empty vocabulary
// falls back to the defaults.
func New(opts Options) *Extractor {
	if opts.ProximityThreshold <= 0 {
		opts.ProximityThreshold = DefaultProximityThreshold
	}
	var canonical []string
	for _, h := range opts.CanonicalHeadings {
		if h = strings.TrimSpace(h); h != "" {
			canonical = append(canonical, h)
		}
	}
	if len(canonical) == 0 {
		canonical = append(canonical, DefaultCanonicalHeadings...)
	}
	opts.CanonicalHeadings = canonical
	return &Extractor{
		opts:      opts,
		canonical: canonical,
		rules:     defaultRules,
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	o := e.opts
	o.CanonicalHeadings = append([]string(nil), e.canonical...)
	return o
}

// Extract walks every page of src in order and returns its outline. The
// title is the metadata title, or the base name of filename without its
// extension. A page that cannot be read fails the whole document.
func (e *Extractor) Extract(src Source, filename string) (*Outline, error) {
	s := &scan{ex: e, headings: []Heading{}}
	for i := 0; i < src.NumPages(); i++ {
		frags, err := src.Page(i)
		if err != nil {
			return nil, fmt.Errorf("outline: page %d: %w", i+1, err)
		}
		for _, f := range ReadingOrder(frags) {
			f.Page = i
			s.classify(f)
		}
	}
	return &Outline{
		Title:   Title(src.MetadataTitle(), filename),
		Outline: s.headings,
	}, nil
}

// Title picks the document title: the metadata title when non-blank,
// otherwise the file's base name without directory or extension.
func Title(metadata, filename string) string {
	if t := strings.TrimSpace(metadata); t != "" {
		return t
	}
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Level formats a nesting depth as "H<depth>".
func Level(depth int) string {
	return fmt.Sprintf("H%d", depth)
}

// RuleNames lists the classification rules in precedence order.
func (e *Extractor) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.name
	}
	return names
}
