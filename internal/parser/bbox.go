package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
)

// parseBBoxLayout reads the XHTML written by `pdftotext -bbox-layout`.
// Each <block> becomes one fragment; the HTML parser lower-cases attribute
// names, so xMin arrives as "xmin".
func parseBBoxLayout(r io.Reader) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bbox layout: %w", err)
	}

	doc := &doctree.Document{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if strings.EqualFold(attr(n, "name"), "title") {
					doc.Title = cleanText(attr(n, "content"))
				}
			case "page":
				pg := &doctree.Page{
					Index:  len(doc.Pages),
					Width:  attrFloat(n, "width"),
					Height: attrFloat(n, "height"),
				}
				doc.Pages = append(doc.Pages, pg)
			case "block":
				if len(doc.Pages) == 0 {
					return
				}
				pg := doc.Pages[len(doc.Pages)-1]
				text := blockText(n)
				if text != "" {
					pg.Fragments = append(pg.Fragments, doctree.Fragment{
						Text:   text,
						Left:   attrFloat(n, "xmin"),
						Top:    attrFloat(n, "ymin"),
						Right:  attrFloat(n, "xmax"),
						Bottom: attrFloat(n, "ymax"),
						Page:   pg.Index,
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("parse bbox layout: no pages")
	}
	return doc, nil
}

// blockText joins the words of a block with single spaces.
func blockText(n *html.Node) string {
	var words []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "word" {
			words = append(words, textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return cleanText(strings.Join(words, " "))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func attrFloat(n *html.Node, key string) float64 {
	f, err := strconv.ParseFloat(attr(n, key), 64)
	if err != nil {
		return 0
	}
	return f
}
