package pdftext

import (
	"fmt"

	"github.com/Lllllllleong/pdfannotext/internal/models"
	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

// AnnotationCollector is a stripper.AnnotationWriter that reads the
// annotations of every page it is handed and keeps them in page order.
type AnnotationCollector struct {
	doc    *Document
	engine *Engine

	pages []models.PageAnnotations
	count int
	err   error
}

// NewAnnotationCollector returns a collector for pages of doc extracted by
// engine. The engine's page counter is recorded with every page.
func NewAnnotationCollector(doc *Document, engine *Engine) *AnnotationCollector {
	return &AnnotationCollector{doc: doc, engine: engine}
}

// WriteAnnotations implements stripper.AnnotationWriter.
func (c *AnnotationCollector) WriteAnnotations(page stripper.Page) {
	rec := models.PageAnnotations{
		PageNumber:     page.Number(),
		HasContent:     page.HasContent(),
		ReportedPageNo: c.engine.CurrentPageNo(),
		Annotations:    []models.Annotation{},
	}
	p, ok := page.(*Page)
	if !ok {
		c.fail(fmt.Errorf("unexpected page type %T", page))
	} else if annots, err := c.doc.Annotations(p); err != nil {
		c.fail(err)
	} else if annots != nil {
		rec.Annotations = annots
	}
	c.count += len(rec.Annotations)
	c.pages = append(c.pages, rec)
}

func (c *AnnotationCollector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Pages returns the collected records in page order.
func (c *AnnotationCollector) Pages() []models.PageAnnotations {
	return c.pages
}

// Count returns the total number of annotations collected.
func (c *AnnotationCollector) Count() int {
	return c.count
}

// Err returns the first error met while reading annotations.
func (c *AnnotationCollector) Err() error {
	return c.err
}
