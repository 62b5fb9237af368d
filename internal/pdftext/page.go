package pdftext

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

// Page is one page of a Document.
type Page struct {
	number  int
	dict    types.Dict
	doc     *Document
	content *bool
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.number
}

// Dict returns the page dictionary with inherited attributes left unresolved.
func (p *Page) Dict() types.Dict {
	return p.dict
}

// HasContent reports whether the page has a non-empty content stream. The
// answer is computed on first use and kept for the page's lifetime.
func (p *Page) HasContent() bool {
	if p.content == nil {
		has := p.doc.hasContents(p.Dict())
		p.content = &has
	}
	return *p.content
}

// Pages returns a fresh sequence over the pages of d.
func (d *Document) Pages() stripper.PageSequence {
	return &pageSequence{doc: d}
}

type pageSequence struct {
	doc  *Document
	last int
}

func (s *pageSequence) Document() stripper.Document {
	return s.doc
}

func (s *pageSequence) Next() (stripper.Page, error) {
	if s.last >= s.doc.PageCount() {
		return nil, iterator.Done
	}
	n := s.last + 1
	dict, _, _, err := s.doc.ctx.PageDict(n, false)
	if err != nil {
		return nil, &stripper.ExtractError{Op: "PageDict", Page: n, Err: err}
	}
	if dict == nil {
		return nil, &stripper.ExtractError{Op: "PageDict", Page: n, Err: ErrNoTextLayer}
	}
	s.last = n
	return &Page{number: n, dict: dict, doc: s.doc}, nil
}
