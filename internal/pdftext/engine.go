package pdftext

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

// DefaultPageSeparator is written after the text of every laid-out page.
const DefaultPageSeparator = "\n"

// Engine writes the plain text of a Document page by page. Pages without a
// content stream are counted but neither laid out nor reported to
// Hooks.EndPage.
type Engine struct {
	doc       *Document
	separator string

	currentPageNo int
	endPage       int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSeparator sets the text written after every laid-out page.
func WithPageSeparator(sep string) Option {
	return func(e *Engine) { e.separator = sep }
}

// NewEngine returns an Engine for doc.
func NewEngine(doc *Document, opts ...Option) *Engine {
	e := &Engine{doc: doc, separator: DefaultPageSeparator}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CurrentPageNo returns the number of pages counted so far in the current run.
func (e *Engine) CurrentPageNo() int {
	return e.currentPageNo
}

// SetEndPage sets the last page to process. WriteText resets it to the page
// count on entry; hooks may lower it while the run is in progress.
func (e *Engine) SetEndPage(n int) {
	e.endPage = n
}

// WriteText implements stripper.Engine.
func (e *Engine) WriteText(ctx context.Context, w io.Writer, hooks stripper.Hooks) error {
	e.currentPageNo = 0
	e.endPage = e.doc.PageCount()

	hooks.StartDocument(e.doc)
	own := e.doc.Pages()
	pages := hooks.TraversePages(own)
	if pages != own && !e.owns(pages) {
		return ErrForeignSequence
	}

	for e.currentPageNo < e.endPage {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := pages.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		e.currentPageNo++
		if !page.HasContent() {
			continue
		}
		text, err := e.doc.pageText(page.Number())
		if err != nil {
			return &stripper.ExtractError{Op: "GetPlainText", Page: page.Number(), Err: err}
		}
		if _, err := io.WriteString(w, strings.TrimRight(text, "\n")+e.separator); err != nil {
			return fmt.Errorf("failed to write text of page %d: %w", page.Number(), err)
		}
		hooks.EndPage(page)
	}
	return nil
}

func (e *Engine) owns(pages stripper.PageSequence) bool {
	if pages == nil {
		return false
	}
	doc, ok := pages.Document().(*Document)
	return ok && doc == e.doc
}
