// Package ebook renders EPUB books as paginated PDF documents.
//
// A book is read from its OCF container: META-INF/container.xml names the
// package document, whose manifest and spine give the reading order of
// the XHTML chapters. Each chapter is sanitized, reduced to its text
// blocks and typeset on A4 pages with the PDF core fonts.
package ebook
