package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Heading markers are
// dropped: "## 2.3 Methodology" lays out as the line "2.3 Methodology".
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	b := doctree.NewFlowBuilder()
	// prefix carries an ordered-list marker ("3. ") onto the first block of
	// its item, the way the list renders.
	var walk func(n ast.Node, prefix string)
	walk = func(n ast.Node, prefix string) {
		switch node := n.(type) {
		case *ast.ThematicBreak, *ast.HTMLBlock:
			return
		case *ast.List:
			num := node.Start
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				marker := ""
				if node.IsOrdered() {
					marker = fmt.Sprintf("%d%c ", num, node.Marker)
					num++
				}
				walk(c, marker)
			}
		case *ast.ListItem, *ast.Blockquote:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c, prefix)
				prefix = ""
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Add(cleanText(prefix + string(seg.Value(src))))
				prefix = ""
			}
		default:
			b.Add(cleanText(prefix + inlineText(n, src)))
		}
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		walk(n, "")
	}

	return b.Document(""), nil
}

// inlineText gets the text content of a goldmark block with inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			// Recurse for nested inlines (emphasis, links, code spans).
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
