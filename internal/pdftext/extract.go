package pdftext

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/pdfannotext/internal/models"
	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

// Extraction is the outcome of a full text and annotation pass.
type Extraction struct {
	*stripper.Result
	PageCount       int
	AnnotationCount int
	PageRecords     []models.PageAnnotations
}

// Extract writes the text of doc to w and collects the annotations of every
// page in the same pass. gate may be nil.
func Extract(ctx context.Context, doc *Document, w io.Writer, gate stripper.Gate, logger *slog.Logger, opts ...Option) (*Extraction, error) {
	engine := NewEngine(doc, opts...)
	collector := NewAnnotationCollector(doc, engine)
	s := stripper.New(collector, stripper.WithGate(gate), stripper.WithLogger(logger))

	res, err := s.Extract(ctx, engine, w)
	if err != nil {
		return nil, err
	}
	if err := collector.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	return &Extraction{
		Result:          res,
		PageCount:       doc.PageCount(),
		AnnotationCount: collector.Count(),
		PageRecords:     collector.Pages(),
	}, nil
}
