package stripper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/api/iterator"
)

var errForeignSequence = errors.New("fake engine: foreign page sequence")

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

type fakePage struct {
	n       int
	content bool
}

func (p *fakePage) Number() int      { return p.n }
func (p *fakePage) HasContent() bool { return p.content }

// newFakeDoc builds a document from a content pattern, e.g. "x.x" is a
// three-page document whose second page is blank.
func newFakeDoc(pattern string) *fakeDoc {
	d := &fakeDoc{}
	for i, c := range pattern {
		d.pages = append(d.pages, &fakePage{n: i + 1, content: c == 'x'})
	}
	return d
}

type fakeSeq struct {
	owner Document
	pages []*fakePage
	pos   int
	pulls int
	bound Document
}

func (s *fakeSeq) Document() Document {
	if s.bound != nil {
		return s.bound
	}
	return s.owner
}

func (s *fakeSeq) Next() (Page, error) {
	if s.pos >= len(s.pages) {
		return nil, iterator.Done
	}
	s.pulls++
	p := s.pages[s.pos]
	s.pos++
	return p, nil
}

type bindingSeq struct {
	*fakeSeq
	err error
}

func (s *bindingSeq) BindDocument(doc Document) error {
	if s.err != nil {
		return s.err
	}
	s.bound = doc
	return nil
}

// fakeEngine mimics an extraction engine that counts every page but only lays
// out, and reports the end of, pages with content.
type fakeEngine struct {
	doc *fakeDoc

	// startDoc is what StartDocument receives; nil simulates a lost context.
	startDoc Document
	// seqOwner is what the engine's own sequence reports as its document.
	seqOwner Document
	binder   bool
	bindErr  error
	failOn   int
	failErr  error

	seq     *fakeSeq
	current int
	endPage int
	events  []string
}

func newFakeEngine(doc *fakeDoc) *fakeEngine {
	return &fakeEngine{doc: doc, startDoc: doc, seqOwner: doc}
}

func (e *fakeEngine) CurrentPageNo() int { return e.current }
func (e *fakeEngine) SetEndPage(n int)   { e.endPage = n }

func (e *fakeEngine) WriteText(ctx context.Context, w io.Writer, hooks Hooks) error {
	e.current = 0
	e.endPage = math.MaxInt
	hooks.StartDocument(e.startDoc)

	e.seq = &fakeSeq{owner: e.seqOwner, pages: e.doc.pages}
	var own PageSequence = e.seq
	if e.binder {
		own = &bindingSeq{fakeSeq: e.seq, err: e.bindErr}
	}
	pages := hooks.TraversePages(own)
	if pages != own && pages.Document() != Document(e.doc) {
		return errForeignSequence
	}

	for e.current < e.endPage {
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
		e.current++
		if !page.HasContent() {
			continue
		}
		if page.Number() == e.failOn {
			return e.failErr
		}
		fmt.Fprintf(w, "text %d\n", page.Number())
		e.events = append(e.events, fmt.Sprintf("text:%d", page.Number()))
		hooks.EndPage(page)
	}
	return nil
}

// recorder is an AnnotationWriter logging the page and the engine counter.
type recorder struct {
	engine *fakeEngine
	pages  []int
	after  func(page Page)
}

func (r *recorder) WriteAnnotations(page Page) {
	r.pages = append(r.pages, page.Number())
	r.engine.events = append(r.engine.events, fmt.Sprintf("annot:%d@%d", page.Number(), r.engine.CurrentPageNo()))
	if r.after != nil {
		r.after(page)
	}
}
