package pdftext

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

func TestOpenRejectsEmptyInput(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
	if _, err := Open([]byte("not a pdf")); err == nil {
		t.Fatal("garbage input opened without error")
	}
}

func TestPagesReportContent(t *testing.T) {
	doc := openFixture(t, []fixturePage{
		{text: "First page"},
		{},
		{text: "Third page"},
	})
	if doc.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", doc.PageCount())
	}
	seq := doc.Pages()
	var got []bool
	for {
		p, err := seq.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if p.Number() != len(got)+1 {
			t.Fatalf("page number %d out of order", p.Number())
		}
		if typ := p.(*Page).Dict().Type(); typ == nil || *typ != "Page" {
			t.Fatalf("page %d dict type = %v", p.Number(), typ)
		}
		got = append(got, p.HasContent())
	}
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("HasContent = %v, want %v", got, want)
		}
	}
}

func TestExtractAnnotatesBlankPages(t *testing.T) {
	doc := openFixture(t, []fixturePage{
		{text: "Hello page one"},
		{annots: []string{textNote}},
		{text: "Hello page three", annots: []string{linkNote}},
	})

	var out bytes.Buffer
	ex, err := Extract(context.Background(), doc, &out, nil, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(out.String(), "Hello page one") || !strings.Contains(out.String(), "Hello page three") {
		t.Fatalf("text = %q", out.String())
	}
	if ex.PageRecords == nil || len(ex.PageRecords) != 3 {
		t.Fatalf("collected %d pages, want 3", len(ex.PageRecords))
	}
	if ex.Degraded || ex.Canceled {
		t.Fatalf("unexpected result %+v", ex.Result)
	}
	if ex.AnnotationCount != 2 {
		t.Fatalf("AnnotationCount = %d, want 2", ex.AnnotationCount)
	}

	blank := ex.PageRecords[1]
	if blank.PageNumber != 2 || blank.HasContent {
		t.Fatalf("page 2 record = %+v", blank)
	}
	if blank.ReportedPageNo != 1 {
		t.Fatalf("page 2 ReportedPageNo = %d, want 1", blank.ReportedPageNo)
	}
	if len(blank.Annotations) != 1 {
		t.Fatalf("page 2 annotations = %+v", blank.Annotations)
	}
	note := blank.Annotations[0]
	if note.Subtype != "Text" || note.Contents != "Check this figure" || note.Author != "Reviewer" || note.Flags != 4 {
		t.Fatalf("note = %+v", note)
	}
	if len(note.Rect) != 4 || note.Rect[2] != 120 {
		t.Fatalf("note rect = %v", note.Rect)
	}

	last := ex.PageRecords[2]
	if last.ReportedPageNo != 3 || !last.HasContent {
		t.Fatalf("page 3 record = %+v", last)
	}
	if len(last.Annotations) != 1 || last.Annotations[0].URI != "https://example.com/manual" {
		t.Fatalf("page 3 annotations = %+v", last.Annotations)
	}
}

func TestExtractStopsWhenGateCancels(t *testing.T) {
	doc := openFixture(t, []fixturePage{
		{text: "one"},
		{text: "two"},
		{},
	})
	flag := &stripper.Flag{}
	flag.Cancel()

	var out bytes.Buffer
	ex, err := Extract(context.Background(), doc, &out, flag, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !ex.Canceled || len(ex.PageRecords) != 1 || ex.PageRecords[0].PageNumber != 1 {
		t.Fatalf("result = %+v, pages = %+v", ex.Result, ex.PageRecords)
	}
	if strings.Contains(out.String(), "two") {
		t.Fatalf("text after cancellation: %q", out.String())
	}
}

func TestExtractGateFiringAfterLastPageKeepsRunComplete(t *testing.T) {
	doc := openFixture(t, []fixturePage{{text: "one"}, {text: "two"}})
	polls := 0
	gate := stripper.GateFunc(func() bool {
		polls++
		return polls >= 2
	})

	var out bytes.Buffer
	ex, err := Extract(context.Background(), doc, &out, gate, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.Canceled || ex.Result.Pages != 2 || len(ex.PageRecords) != 2 {
		t.Fatalf("result = %+v, pages = %+v", ex.Result, ex.PageRecords)
	}
	if !strings.Contains(out.String(), "two") {
		t.Fatalf("text = %q", out.String())
	}
}

func TestExtractWithPageSeparator(t *testing.T) {
	doc := openFixture(t, []fixturePage{{text: "alpha"}, {text: "beta"}})
	var out bytes.Buffer
	if _, err := Extract(context.Background(), doc, &out, nil, nil, WithPageSeparator("\f")); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Count(out.String(), "\f") != 2 {
		t.Fatalf("text = %q", out.String())
	}
}

// swapHooks hands the engine a sequence of another document.
type swapHooks struct {
	other stripper.PageSequence
}

func (h swapHooks) StartDocument(stripper.Document) {}
func (h swapHooks) TraversePages(stripper.PageSequence) stripper.PageSequence {
	return h.other
}
func (h swapHooks) EndPage(stripper.Page) {}

func TestEngineRejectsForeignSequence(t *testing.T) {
	doc := openFixture(t, []fixturePage{{text: "mine"}})
	other := openFixture(t, []fixturePage{{text: "theirs"}})
	err := NewEngine(doc).WriteText(context.Background(), io.Discard, swapHooks{other: other.Pages()})
	if !errors.Is(err, ErrForeignSequence) {
		t.Fatalf("err = %v, want ErrForeignSequence", err)
	}
}

func TestEngineReturnsContextError(t *testing.T) {
	doc := openFixture(t, []fixturePage{{text: "one"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, doc, io.Discard, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

type otherPage struct{}

func (otherPage) Number() int      { return 1 }
func (otherPage) HasContent() bool { return false }

func TestCollectorKeepsFirstError(t *testing.T) {
	doc := openFixture(t, []fixturePage{{text: "one"}})
	c := NewAnnotationCollector(doc, NewEngine(doc))
	c.WriteAnnotations(otherPage{})
	if c.Err() == nil {
		t.Fatal("foreign page type not reported")
	}
	if len(c.Pages()) != 1 || c.Pages()[0].PageNumber != 1 {
		t.Fatalf("records = %+v", c.Pages())
	}
}
