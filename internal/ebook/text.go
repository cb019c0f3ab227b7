package ebook

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BlockKind classifies a run of chapter text.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	Subheading
	ListItem
	Quote
	Preformatted
)

// Block is one typeset unit of chapter text.
type Block struct {
	Kind BlockKind
	Text string
}

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, dt, dd"

// Extractor turns chapter markup into text blocks. Markup is sanitized
// before parsing so scripts, styles and event handlers never reach the
// extracted text. Safe for concurrent use.
type Extractor struct {
	policy *bluemonday.Policy
}

// NewExtractor creates an extractor with a user-content policy.
func NewExtractor() *Extractor {
	return &Extractor{policy: bluemonday.UGCPolicy()}
}

// Blocks returns the text blocks of an XHTML document in document order.
// Blocks nested in another block are folded into their outermost parent.
func (e *Extractor) Blocks(markup string) ([]Block, error) {
	clean := e.policy.Sanitize(markup)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, err
	}

	var blocks []Block
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}

		kind := kindOf(goquery.NodeName(s))
		var text string
		if kind == Preformatted {
			text = strings.TrimRight(s.Text(), "\n ")
		} else {
			text = collapseSpace(s.Text())
		}
		if text == "" {
			return
		}
		blocks = append(blocks, Block{Kind: kind, Text: text})
	})

	// Documents without block markup still carry body text
	if len(blocks) == 0 {
		if text := collapseSpace(doc.Find("body").Text()); text != "" {
			blocks = append(blocks, Block{Kind: Paragraph, Text: text})
		}
	}

	return blocks, nil
}

func kindOf(node string) BlockKind {
	switch node {
	case "h1", "h2":
		return Heading
	case "h3", "h4", "h5", "h6":
		return Subheading
	case "li", "dt", "dd":
		return ListItem
	case "blockquote":
		return Quote
	case "pre":
		return Preformatted
	}
	return Paragraph
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ToCP1252 converts text to the Windows-1252 bytes the PDF core fonts
// expect. Characters outside the code page lose their diacritics where
// possible and are otherwise replaced with '?'.
func ToCP1252(s string) string {
	s = norm.NFC.String(s)
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			sb.WriteByte(b)
			continue
		}

		base, _, _ := transform.String(strip, string(r))
		written := false
		for _, br := range base {
			if b, ok := charmap.Windows1252.EncodeRune(br); ok {
				sb.WriteByte(b)
				written = true
			}
		}
		if !written {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
