package ebook

import (
	"archive/zip"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taylorskalyo/goreader/epub"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>A Café Story</dc:title>
    <dc:creator>Jane Writer</dc:creator>
  </metadata>
  <manifest>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="c1" href="text/chapter%201.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="text/chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="notes" href="text/notes.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c2"/>
    <itemref idref="c1"/>
    <itemref idref="notes" linear="no"/>
  </spine>
</package>`

const chapterOne = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Ignored</title><script>alert("x")</script></head>
<body>
  <h1>Chapter One</h1>
  <p>It was a   “bright” day —
  cold.</p>
  <ul><li><p>First item</p></li><li>Second item</li></ul>
</body></html>`

const chapterTwo = `<html><body><h2>Prologue</h2><blockquote>Quoted words</blockquote><pre>code  line</pre></body></html>`

// writeEPUB builds an EPUB in dir from name → content pairs.
func writeEPUB(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	// mimetype first, as readers expect
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func validBook() map[string]string {
	return map[string]string{
		"META-INF/container.xml":     testContainer,
		"OEBPS/content.opf":          testOPF,
		"OEBPS/style.css":            "p { color: red }",
		"OEBPS/text/chapter 1.xhtml": chapterOne,
		"OEBPS/text/chapter2.xhtml":  chapterTwo,
		"OEBPS/text/notes.xhtml":     "<html><body><p>Notes</p></body></html>",
	}
}

func TestReadBook(t *testing.T) {
	path := writeEPUB(t, t.TempDir(), validBook())

	book, err := ReadBook(path, NewExtractor())
	require.NoError(t, err)

	assert.Equal(t, "A Café Story", book.Title)
	assert.Equal(t, "Jane Writer", book.Author)
	require.Len(t, book.Chapters, 3)

	// Spine order wins over manifest order
	assert.Equal(t, "OEBPS/text/chapter2.xhtml", book.Chapters[0].Href)
	assert.Equal(t, "OEBPS/text/chapter 1.xhtml", book.Chapters[1].Href)
	assert.Equal(t, "OEBPS/text/notes.xhtml", book.Chapters[2].Href)

	assert.Equal(t, []Block{
		{Kind: Heading, Text: "Prologue"},
		{Kind: Quote, Text: "Quoted words"},
		{Kind: Preformatted, Text: "code  line"},
	}, book.Chapters[0].Blocks)

	assert.Equal(t, []Block{
		{Kind: Heading, Text: "Chapter One"},
		{Kind: Paragraph, Text: "It was a “bright” day — cold."},
		{Kind: ListItem, Text: "First item"},
		{Kind: ListItem, Text: "Second item"},
	}, book.Chapters[1].Blocks)
}

func TestReadBookErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(files map[string]string)
		want   error
	}{
		{
			name:   "missing container",
			mutate: func(files map[string]string) { delete(files, "META-INF/container.xml") },
			want:   fs.ErrNotExist,
		},
		{
			name:   "missing package document",
			mutate: func(files map[string]string) { delete(files, "OEBPS/content.opf") },
			want:   epub.ErrBadRootfile,
		},
		{
			name:   "chapter missing from archive",
			mutate: func(files map[string]string) { delete(files, "OEBPS/text/chapter2.xhtml") },
		},
		{
			name: "spine references unknown item",
			mutate: func(files map[string]string) {
				files["OEBPS/content.opf"] = strings.Replace(testOPF, `idref="c1"`, `idref="c9"`, 1)
			},
			want: epub.ErrBadItemref,
		},
		{
			name: "empty spine",
			mutate: func(files map[string]string) {
				files["OEBPS/content.opf"] = strings.Replace(testOPF, `<itemref idref="c2"/>
    <itemref idref="c1"/>
    <itemref idref="notes" linear="no"/>`, "", 1)
			},
			want: ErrNoChapters,
		},
		{
			name: "spine without documents",
			mutate: func(files map[string]string) {
				files["OEBPS/content.opf"] = strings.Replace(testOPF, `<itemref idref="c2"/>
    <itemref idref="c1"/>
    <itemref idref="notes" linear="no"/>`, `<itemref idref="css"/>`, 1)
			},
			want: ErrNoChapters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validBook()
			tt.mutate(files)
			path := writeEPUB(t, t.TempDir(), files)

			_, err := ReadBook(path, NewExtractor())
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestReadBookNotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.epub")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := ReadBook(path, NewExtractor())
	assert.Error(t, err)
}

func TestExtractorStripsUnsafeMarkup(t *testing.T) {
	blocks, err := NewExtractor().Blocks(`<p onclick="x()">Safe<script>evil()</script> text</p><style>p{}</style>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Safe text", blocks[0].Text)
}

func TestExtractorBodyFallback(t *testing.T) {
	blocks, err := NewExtractor().Blocks(`<html><body>Loose   text only</body></html>`)
	require.NoError(t, err)
	assert.Equal(t, []Block{{Kind: Paragraph, Text: "Loose text only"}}, blocks)
}

func TestToCP1252(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Café", "Caf\xe9"},
		{"“quote” — dash", "\x93quote\x94 \x97 dash"},
		{"Ša", "\x8aa"},
		{"Łódź", "?\xf3dz"},
		{"日本", "??"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCP1252(tt.in))
		})
	}
}

func TestRenderPDF(t *testing.T) {
	dir := t.TempDir()
	input := writeEPUB(t, dir, validBook())
	output := filepath.Join(dir, "book_meta.pdf")

	err := NewRenderer().RenderPDF(context.Background(), input, output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestRenderPDFFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	files := validBook()
	delete(files, "OEBPS/text/chapter 1.xhtml")
	input := writeEPUB(t, dir, files)
	output := filepath.Join(dir, "book_meta.pdf")

	err := NewRenderer().RenderPDF(context.Background(), input, output)
	require.Error(t, err)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the source should remain")
}

func TestRenderPDFCancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeEPUB(t, dir, validBook())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRenderer().RenderPDF(ctx, input, filepath.Join(dir, "book_meta.pdf"))
	assert.ErrorIs(t, err, context.Canceled)
}
