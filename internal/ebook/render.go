package ebook

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"

	"github.com/go-pdf/fpdf"
)

type blockStyle struct {
	style    string
	size     float64
	before   float64
	indent   float64
	fontName string
}

var blockStyles = map[BlockKind]blockStyle{
	Paragraph:    {size: 11, before: 2},
	Heading:      {style: "B", size: 18, before: 6},
	Subheading:   {style: "B", size: 14, before: 4},
	ListItem:     {size: 11, before: 1, indent: 6},
	Quote:        {style: "I", size: 11, before: 2, indent: 10},
	Preformatted: {size: 9, before: 2, fontName: "Courier"},
}

const (
	bodyFont   = "Helvetica"
	lineFactor = 0.45
	pageMargin = 20.0
)

// Renderer converts EPUB books to PDF. Safe for concurrent use.
type Renderer struct {
	extractor *Extractor
}

// NewRenderer creates an e-book renderer.
func NewRenderer() *Renderer {
	return &Renderer{extractor: NewExtractor()}
}

// RenderPDF reads the EPUB at input and writes an A4 PDF to output. No
// output is written when any chapter fails.
func (r *Renderer) RenderPDF(ctx context.Context, input, output string) error {
	book, err := ReadBook(input, r.extractor)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if book.Title == "" {
		book.Title = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	logging.Debug("Rendering %q: %d chapters", book.Title, len(book.Chapters))

	pdf, err := typeset(ctx, book)
	if err != nil {
		return err
	}

	if err := filesystem.WriteAtomic(output, pdf.Output); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(output), err)
	}
	return nil
}

// typeset lays out book on A4 pages. Each chapter starts a new page.
func typeset(ctx context.Context, book *Book) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(book.Title, true)
	pdf.SetAuthor(book.Author, true)
	pdf.SetCreator("metamorphosis", true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin / 2)
		pdf.SetFont(bodyFont, "", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(bodyFont, "B", 24)
	pdf.MultiCell(0, 12, ToCP1252(book.Title), "", "C", false)
	if book.Author != "" {
		pdf.Ln(4)
		pdf.SetFont(bodyFont, "I", 14)
		pdf.MultiCell(0, 8, ToCP1252(book.Author), "", "C", false)
	}

	for _, ch := range book.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(ch.Blocks) == 0 {
			continue
		}
		pdf.AddPage()
		for _, b := range ch.Blocks {
			writeBlock(pdf, b)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to typeset e-book: %w", err)
	}
	return pdf, nil
}

func writeBlock(pdf *fpdf.Fpdf, b Block) {
	st := blockStyles[b.Kind]
	font := st.fontName
	if font == "" {
		font = bodyFont
	}

	pdf.Ln(st.before)
	pdf.SetFont(font, st.style, st.size)
	lineHeight := st.size * lineFactor

	text := ToCP1252(b.Text)
	if b.Kind == ListItem {
		text = "\x95 " + text
	}

	left, _, _, _ := pdf.GetMargins()
	pdf.SetX(left + st.indent)
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
}
