package ebook

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

const containerPath = "META-INF/container.xml"

// ErrNoChapters is returned for books whose spine lists no readable documents.
var ErrNoChapters = errors.New("e-book has no readable chapters")

// Book is the readable content of an EPUB file.
type Book struct {
	Title    string
	Author   string
	Chapters []Chapter
}

// Chapter is one spine document reduced to text blocks.
type Chapter struct {
	Href   string
	Blocks []Block
}

// ReadBook opens an EPUB and extracts every spine chapter in reading order.
// A chapter that cannot be read or parsed fails the whole book.
func ReadBook(filePath string, extractor *Extractor) (*Book, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open e-book: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to open e-book: %w", err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open e-book archive: %w", err)
	}
	// epub.NewReader dereferences the container entry without checking it.
	if _, err := fs.Stat(zr, containerPath); err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}

	r, err := epub.NewReader(f, info.Size())
	if errors.Is(err, epub.ErrNoItemref) {
		return nil, ErrNoChapters
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}
	rootfile := r.Rootfiles[0]

	book := &Book{
		Title:  strings.TrimSpace(rootfile.Title),
		Author: strings.TrimSpace(rootfile.Creator),
	}
	base := path.Dir(rootfile.FullPath)
	for _, ref := range rootfile.Itemrefs {
		if !isDocumentType(ref.MediaType) {
			continue
		}
		name := chapterPath(base, ref.HREF)
		blocks, err := readChapter(zr, name, extractor)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter %s: %w", name, err)
		}
		book.Chapters = append(book.Chapters, Chapter{Href: name, Blocks: blocks})
	}
	if len(book.Chapters) == 0 {
		return nil, ErrNoChapters
	}
	return book, nil
}

// chapterPath resolves a manifest href against the package directory.
// Hrefs are URLs, so "chapter%201.xhtml" names "chapter 1.xhtml".
func chapterPath(base, href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return path.Clean(path.Join(base, href))
}

func isDocumentType(mediaType string) bool {
	switch mediaType {
	case "application/xhtml+xml", "text/html", "application/x-dtbook+xml":
		return true
	}
	return false
}

func readChapter(fsys fs.FS, name string, extractor *Extractor) ([]Block, error) {
	rc, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return extractor.Blocks(string(data))
}
