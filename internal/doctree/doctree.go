package doctree

import (
	"fmt"
	"strconv"
)

// Document is a parsed document reduced to positioned text.
type Document struct {
	Title string  // Embedded metadata title (empty if the format has none)
	Pages []*Page // Pages in document order
}

// Page holds the text fragments laid out on one page.
type Page struct {
	Index     int        // 0-based page index
	Width     float64    // Page width in layout units (0 if unknown)
	Height    float64    // Page height in layout units (0 if unknown)
	Fragments []Fragment // Extraction order, not necessarily reading order
}

// Fragment is a positioned run of text. Y grows downward: Top < Bottom.
type Fragment struct {
	Text   string
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
	Page   int // 0-based
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// Page returns the fragments of page i (0-based).
func (d *Document) Page(i int) ([]Fragment, error) {
	if i < 0 || i >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range (%d pages)", i, len(d.Pages))
	}
	return d.Pages[i].Fragments, nil
}

// MetadataTitle returns the embedded title, if any.
func (d *Document) MetadataTitle() string {
	return d.Title
}

// FragmentCount returns the number of fragments across all pages.
func (d *Document) FragmentCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Fragments)
	}
	return n
}

// Layout lists every fragment's text and box in extraction order, one
// fragment per line, with a form feed after each page. Two documents with
// the same Layout produce the same outline up to the title, so it is the
// content key for dedup.
func (d *Document) Layout() string {
	var b []byte
	for _, p := range d.Pages {
		for _, f := range p.Fragments {
			b = append(b, f.Text...)
			for _, v := range [...]float64{f.Left, f.Top, f.Right, f.Bottom} {
				b = append(b, ' ')
				b = strconv.AppendFloat(b, v, 'g', -1, 64)
			}
			b = append(b, '\n')
		}
		b = append(b, '\f')
	}
	return string(b)
}
