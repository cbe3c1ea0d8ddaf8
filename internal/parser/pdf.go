package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
	Validate          bool
}

// Default US Letter media box, used when a page does not declare one.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	if p.Validate {
		if err := validatePDF(tmpPath); err != nil {
			return nil, fmt.Errorf("validate pdf: %w", err)
		}
	}

	doc, err := extractPDFLayout(tmpPath)
	if err != nil && p.FallbackPdftotext {
		doc, err = extractPdftotextLayout(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf layout: %w", err)
	}
	return doc, nil
}

var disablePdfcpuConfig sync.Once

func validatePDF(path string) error {
	disablePdfcpuConfig.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}

func extractPDFLayout(path string) (doc *doctree.Document, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc = &doctree.Document{
		Title: cleanText(reader.Trailer().Key("Info").Key("Title").Text()),
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pg := &doctree.Page{Index: i - 1, Width: defaultPageWidth, Height: defaultPageHeight}
		doc.Pages = append(doc.Pages, pg)
		if page.V.IsNull() {
			continue
		}
		if w, h, ok := mediaBox(page.V); ok {
			pg.Width, pg.Height = w, h
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			pg.Fragments = append(pg.Fragments, rowFragments(row.Content, pg.Height, pg.Index)...)
		}
	}
	return doc, nil
}

// mediaBox reads the page size, following inherited attributes up the
// page tree.
func mediaBox(v pdflib.Value) (width, height float64, ok bool) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			return width, height, width > 0 && height > 0
		}
		v = v.Key("Parent")
	}
	return 0, 0, false
}

// rowFragments turns one text row into fragments. Glyphs are joined into
// words, and the row is cut wherever the horizontal gap is wider than
// twice the font size, so a section number set apart from its title comes
// out as its own fragment. PDF space has Y growing upward; fragments are
// flipped so Top < Bottom.
func rowFragments(texts pdflib.TextHorizontal, pageHeight float64, page int) []doctree.Fragment {
	if len(texts) == 0 {
		return nil
	}
	sorted := make(pdflib.TextHorizontal, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var frags []doctree.Fragment
	var sb strings.Builder
	var cur doctree.Fragment
	open := false
	prevEnd := 0.0

	flush := func() {
		if !open {
			return
		}
		if text := cleanText(sb.String()); text != "" {
			cur.Text = text
			frags = append(frags, cur)
		}
		sb.Reset()
		open = false
	}

	for _, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		top := pageHeight - (t.Y + size)
		bottom := pageHeight - t.Y
		gap := t.X - prevEnd

		if open && gap > 2*size {
			flush()
		}
		if !open {
			cur = doctree.Fragment{Left: t.X, Top: top, Right: t.X + t.W, Bottom: bottom, Page: page}
			open = true
		} else {
			if gap > size*0.25 {
				sb.WriteByte(' ')
			}
			cur.Top = min(cur.Top, top)
			cur.Bottom = max(cur.Bottom, bottom)
			cur.Right = max(cur.Right, t.X+t.W)
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()
	return frags
}

func extractPdftotextLayout(path string) (*doctree.Document, error) {
	cmd := exec.Command("pdftotext", "-bbox-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return parseBBoxLayout(strings.NewReader(string(out)))
}
