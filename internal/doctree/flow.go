package doctree

import "strings"

// Layout constants for formats that have no geometry of their own.
// A block occupies LineHeight units and blocks are LinePitch apart, so the
// gap between consecutive blocks (LinePitch - LineHeight) reads like the gap
// between rendered lines.
const (
	LineHeight = 12.0
	LinePitch  = 24.0
	PageWidth  = 612.0
	PageHeight = 792.0
	LeftMargin = 72.0
	TopMargin  = 72.0
)

// FlowBuilder lays out unpaginated text blocks top-to-bottom on synthetic
// pages. The zero value is not usable; call NewFlowBuilder.
type FlowBuilder struct {
	doc  *Document
	page *Page
	y    float64
}

func NewFlowBuilder() *FlowBuilder {
	b := &FlowBuilder{doc: &Document{}}
	b.PageBreak()
	return b
}

// Add places one block of text on the current page. Blank blocks are
// dropped. Text that no longer fits starts a new page.
func (b *FlowBuilder) Add(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.y+LineHeight > PageHeight-TopMargin && len(b.page.Fragments) > 0 {
		b.PageBreak()
	}
	b.page.Fragments = append(b.page.Fragments, Fragment{
		Text:   text,
		Left:   LeftMargin,
		Top:    b.y,
		Right:  PageWidth - LeftMargin,
		Bottom: b.y + LineHeight,
		Page:   b.page.Index,
	})
	b.y += LinePitch
}

// PageBreak starts a new page. Consecutive breaks do not produce empty pages.
func (b *FlowBuilder) PageBreak() {
	if b.page != nil && len(b.page.Fragments) == 0 {
		return
	}
	b.page = &Page{
		Index:  len(b.doc.Pages),
		Width:  PageWidth,
		Height: PageHeight,
	}
	b.doc.Pages = append(b.doc.Pages, b.page)
	b.y = TopMargin
}

// Document finalizes the layout. A trailing empty page is dropped unless it
// is the only page.
func (b *FlowBuilder) Document(title string) *Document {
	d := b.doc
	if n := len(d.Pages); n > 1 && len(d.Pages[n-1].Fragments) == 0 {
		d.Pages = d.Pages[:n-1]
	}
	d.Title = strings.TrimSpace(title)
	return d
}
