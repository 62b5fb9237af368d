// Package stripper drives a page-by-page text extraction engine while making
// sure an annotation hook runs exactly once for every page of the document,
// including the pages the engine skips because they carry no content.
//
// Engines only fire their end-of-page notification for pages they actually
// lay out. The Stripper wraps the engine's page sequence so that pages without
// content reach the annotation hook at retrieval time instead, keeping the
// whole run to a single pass over the document.
package stripper

import (
	"context"
	"io"
	"log/slog"
)

// Document is an opaque handle to the document being extracted.
type Document interface {
	PageCount() int
}

// Page is a single page of a Document.
type Page interface {
	// Number is the 1-based position of the page in document order.
	Number() int
	// HasContent reports whether the page carries extractable content.
	// Implementations evaluate it once and cache the answer.
	HasContent() bool
}

// PageSequence yields the pages of a document in order, one per call to Next.
// Next returns iterator.Done once the sequence is exhausted. Sequences are
// single pass and cannot be restarted.
type PageSequence interface {
	Document() Document
	Next() (Page, error)
}

// DocumentBinder is implemented by page sequences that do not carry their
// owning document from construction but accept it afterwards.
type DocumentBinder interface {
	BindDocument(doc Document) error
}

// Hooks are the lifecycle notifications an Engine delivers during WriteText.
type Hooks interface {
	// StartDocument is called once, before any page is retrieved.
	StartDocument(doc Document)
	// TraversePages receives the engine's own page sequence and returns the
	// sequence the engine must pull pages from.
	TraversePages(pages PageSequence) PageSequence
	// EndPage is called after the text of a page with content was written.
	// Pages without content never reach it.
	EndPage(page Page)
}

// Engine is the text extraction collaborator.
type Engine interface {
	// WriteText extracts the text of every page to w, delivering hooks along
	// the way. It checks the end page before pulling each page.
	WriteText(ctx context.Context, w io.Writer, hooks Hooks) error
	// CurrentPageNo is the number of pages the engine has counted so far.
	CurrentPageNo() int
	// SetEndPage sets the last page number the engine will process.
	SetEndPage(n int)
}

// AnnotationWriter receives every page of the document exactly once.
//
// For pages without content WriteAnnotations runs before the engine has
// counted the page, so Engine.CurrentPageNo reports one less than the page
// number. For pages with content it runs after the page text was written and
// CurrentPageNo equals the page number.
type AnnotationWriter interface {
	WriteAnnotations(page Page)
}

// AnnotationWriterFunc adapts a function to AnnotationWriter.
type AnnotationWriterFunc func(page Page)

// WriteAnnotations calls f(page).
func (f AnnotationWriterFunc) WriteAnnotations(page Page) { f(page) }

// Result summarizes one Extract run.
type Result struct {
	// Pages is the number of pages handed to the AnnotationWriter.
	Pages int
	// Canceled is set when the gate stopped the run early.
	Canceled bool
	// Degraded is set when the page sequence could not be wrapped. Text and
	// annotations of pages with content are unaffected, pages without content
	// were not annotated.
	Degraded       bool
	DegradedReason error
}

// Stripper extracts text through an Engine and annotations through an
// AnnotationWriter in the same pass.
type Stripper struct {
	annotations AnnotationWriter
	gate        Gate
	logger      *slog.Logger
}

// Option configures a Stripper.
type Option func(*Stripper)

// WithGate sets the cancellation gate polled after every page.
func WithGate(g Gate) Option {
	return func(s *Stripper) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stripper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Stripper that hands every page to w.
func New(w AnnotationWriter, opts ...Option) *Stripper {
	s := &Stripper{
		annotations: w,
		gate:        Never,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs engine over its document, writing text to w. Errors from the
// engine are returned unchanged. Cancellation is not an error: it is reported
// through Result.Canceled, and every page before the cut has been annotated.
func (s *Stripper) Extract(ctx context.Context, engine Engine, w io.Writer) (*Result, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	b := &bridge{stripper: s, engine: engine}
	err := engine.WriteText(ctx, w, b)
	return b.result(), err
}

// bridge holds the state of a single Extract call.
type bridge struct {
	stripper *Stripper
	engine   Engine

	doc           Document
	lastAnnotated int
	annotated     int
	canceled      bool
	degraded      error
}

func (b *bridge) StartDocument(doc Document) {
	b.doc = doc
}

func (b *bridge) TraversePages(pages PageSequence) PageSequence {
	doc, err := bindDocument(b.doc, pages)
	if err != nil {
		b.degraded = err
		b.stripper.logger.Warn("Page sequence left unwrapped. Annotations on pages without content will be missed.", "error", err)
		return pages
	}
	return intercept(doc, pages, b.pageDone)
}

func (b *bridge) EndPage(page Page) {
	b.pageDone(page)
}

// pageDone annotates page unless that already happened, then polls the gate
// if pages remain.
func (b *bridge) pageDone(page Page) {
	if b.canceled {
		return
	}
	if n := page.Number(); n > b.lastAnnotated {
		b.lastAnnotated = n
		b.annotated++
		b.stripper.annotations.WriteAnnotations(page)
	}
	if b.remaining(page) && b.stripper.gate.IsCanceled() {
		b.canceled = true
		b.engine.SetEndPage(0)
	}
}

// remaining reports whether pages follow page. A gate that fires on the last
// page truncates nothing.
func (b *bridge) remaining(page Page) bool {
	return b.doc == nil || page.Number() < b.doc.PageCount()
}

func (b *bridge) result() *Result {
	return &Result{
		Pages:          b.annotated,
		Canceled:       b.canceled,
		Degraded:       b.degraded != nil,
		DegradedReason: b.degraded,
	}
}
