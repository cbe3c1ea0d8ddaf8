package parser

import (
	"strings"
	"testing"
)

const bboxSample = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
<title></title>
<meta name="Title" content="Outline Recovery"/>
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8"/>
</head>
<body>
<doc>
  <page width="612.000000" height="792.000000">
    <flow>
      <block xMin="72.000000" yMin="88.000000" xMax="90.000000" yMax="100.000000">
        <line xMin="72.000000" yMin="88.000000" xMax="90.000000" yMax="100.000000">
          <word xMin="72.000000" yMin="88.000000" xMax="90.000000" yMax="100.000000">2.3</word>
        </line>
      </block>
      <block xMin="72.000000" yMin="110.000000" xMax="200.000000" yMax="122.000000">
        <line xMin="72.000000" yMin="110.000000" xMax="200.000000" yMax="122.000000">
          <word xMin="72.000000" yMin="110.000000" xMax="140.000000" yMax="122.000000">Related</word>
          <word xMin="145.000000" yMin="110.000000" xMax="200.000000" yMax="122.000000">Works</word>
        </line>
      </block>
    </flow>
  </page>
  <page width="612.000000" height="792.000000">
  </page>
</doc>
</body>
</html>`

func TestParseBBoxLayout(t *testing.T) {
	doc, err := parseBBoxLayout(strings.NewReader(bboxSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Outline Recovery" {
		t.Errorf("expected title %q, got %q", "Outline Recovery", doc.Title)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	frags := doc.Pages[0].Fragments
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if frags[0].Text != "2.3" || frags[0].Bottom != 100 {
		t.Errorf("unexpected first fragment: %+v", frags[0])
	}
	if frags[1].Text != "Related Works" || frags[1].Top != 110 || frags[1].Right != 200 {
		t.Errorf("unexpected second fragment: %+v", frags[1])
	}
	if doc.Pages[0].Height != 792 {
		t.Errorf("expected page height 792, got %v", doc.Pages[0].Height)
	}
}

func TestParseBBoxLayout_NoPages(t *testing.T) {
	if _, err := parseBBoxLayout(strings.NewReader("<html><body></body></html>")); err == nil {
		t.Fatal("expected error when no pages are present")
	}
}
