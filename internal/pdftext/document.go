// Package pdftext adapts pdfcpu and ledongthuc/pdf into a stripper.Engine.
//
// pdfcpu reads and validates the file and resolves page and annotation
// dictionaries. ledongthuc/pdf lays out the plain text of a page. Like most
// text engines, the Engine only lays out pages that have a content stream and
// only reports the end of those pages.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	// ErrEmptyDocument is returned by Open for zero-length input.
	ErrEmptyDocument = errors.New("pdftext: empty document")

	// ErrNoTextLayer means the text reader has no page for a page number
	// pdfcpu resolved.
	ErrNoTextLayer = errors.New("pdftext: page missing from text layer")

	// ErrForeignSequence is returned by Engine.WriteText when the hooks return
	// a page sequence that does not belong to the engine's document.
	ErrForeignSequence = errors.New("pdftext: page sequence belongs to another document")
)

// Document is an opened PDF.
type Document struct {
	ctx  *model.Context
	text *pdf.Reader
}

// Open reads and validates a PDF held in memory.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF text layer: %w", err)
	}
	return &Document{ctx: ctx, text: r}, nil
}

// OpenFile reads and validates the PDF at path.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Open(data)
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// hasContents reports whether a page dictionary has a non-empty /Contents.
func (d *Document) hasContents(dict types.Dict) bool {
	o, found := dict.Find("Contents")
	if !found || o == nil {
		return false
	}
	o, err := d.ctx.Dereference(o)
	if err != nil || o == nil {
		return false
	}
	switch v := o.(type) {
	case types.StreamDict:
		if l := v.IntEntry("Length"); l != nil && *l == 0 {
			return false
		}
		return true
	case types.Array:
		return len(v) > 0
	}
	return false
}

// pageText lays out the plain text of page n.
func (d *Document) pageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text layer panicked: %v", r)
		}
	}()
	p := d.text.Page(n)
	if p.V.IsNull() {
		return "", ErrNoTextLayer
	}
	return p.GetPlainText(nil)
}
