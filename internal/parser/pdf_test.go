package parser

import (
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

func glyphs(s string, x, y, size, advance float64) pdflib.TextHorizontal {
	var out pdflib.TextHorizontal
	for _, r := range s {
		out = append(out, pdflib.Text{FontSize: size, X: x, Y: y, W: advance, S: string(r)})
		x += advance
	}
	return out
}

func TestRowFragments_SplitsWideGap(t *testing.T) {
	row := glyphs("2.3", 72, 700, 12, 5)
	row = append(row, pdflib.Text{FontSize: 12, X: 120, Y: 700, W: 60, S: "Methodology"})

	frags := rowFragments(row, 792, 4)
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(frags), frags)
	}
	if frags[0].Text != "2.3" || frags[1].Text != "Methodology" {
		t.Errorf("unexpected texts %q, %q", frags[0].Text, frags[1].Text)
	}
	if frags[0].Top != 80 || frags[0].Bottom != 92 {
		t.Errorf("expected top=80 bottom=92, got top=%v bottom=%v", frags[0].Top, frags[0].Bottom)
	}
	if frags[1].Left != 120 || frags[1].Right != 180 {
		t.Errorf("expected left=120 right=180, got left=%v right=%v", frags[1].Left, frags[1].Right)
	}
	if frags[0].Page != 4 {
		t.Errorf("expected page 4, got %d", frags[0].Page)
	}
}

func TestRowFragments_JoinsWords(t *testing.T) {
	row := glyphs("Hello", 72, 500, 12, 5)
	row = append(row, glyphs("World", 101, 500, 12, 5)...)

	frags := rowFragments(row, 792, 0)
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0].Text != "Hello World" {
		t.Errorf("expected %q, got %q", "Hello World", frags[0].Text)
	}
}

func TestRowFragments_UnsortedAndLigatures(t *testing.T) {
	row := pdflib.TextHorizontal{
		{FontSize: 10, X: 90, Y: 400, W: 30, S: "nitions"},
		{FontSize: 10, X: 72, Y: 400, W: 18, S: "Deﬁ"},
	}
	frags := rowFragments(row, 792, 0)
	if len(frags) != 1 || frags[0].Text != "Definitions" {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
}

func TestRowFragments_Empty(t *testing.T) {
	if frags := rowFragments(nil, 792, 0); frags != nil {
		t.Errorf("expected nil, got %+v", frags)
	}
	blank := pdflib.TextHorizontal{{FontSize: 10, X: 72, Y: 400, W: 3, S: " "}}
	if frags := rowFragments(blank, 792, 0); len(frags) != 0 {
		t.Errorf("expected no fragments for blank row, got %+v", frags)
	}
}

func TestRowFragments_AcceptsRowContent(t *testing.T) {
	row := pdflib.Row{Position: 700, Content: glyphs("Abstract", 72, 700, 12, 6)}
	frags := rowFragments(row.Content, 792, 0)
	if len(frags) != 1 || frags[0].Text != "Abstract" {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
}

func TestPDFParser_RejectsGarbage(t *testing.T) {
	p := &PDFParser{}
	if _, err := p.Parse(strings.NewReader("not a pdf"), "bad.pdf"); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}
