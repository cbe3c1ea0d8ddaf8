package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// TextParser handles plain text files. Paragraphs are separated by blank
// lines; a form feed starts a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewFlowBuilder()
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			b.Add(cleanText(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		segments := strings.Split(scanner.Text(), "\f")
		for i, line := range segments {
			if i > 0 {
				flush()
				b.PageBreak()
			}
			if strings.TrimSpace(line) == "" {
				flush()
				continue
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Plain text carries no metadata title.
	return b.Document(""), nil
}
