package pdftext

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/pdfannotext/internal/models"
)

// Annotations returns the annotations listed in the /Annots array of page.
func (d *Document) Annotations(page *Page) ([]models.Annotation, error) {
	o, found := page.Dict().Find("Annots")
	if !found || o == nil {
		return nil, nil
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve annotations on page %d: %w", page.number, err)
	}
	annots := make([]models.Annotation, 0, len(arr))
	for i, item := range arr {
		dict, err := d.ctx.DereferenceDict(item)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve annotation %d on page %d: %w", i, page.number, err)
		}
		if dict == nil {
			continue
		}
		annots = append(annots, d.annotation(page.number, dict))
	}
	return annots, nil
}

func (d *Document) annotation(pageNr int, dict types.Dict) models.Annotation {
	a := models.Annotation{
		Page:     pageNr,
		Contents: d.stringEntry(dict, "Contents"),
		Author:   d.stringEntry(dict, "T"),
		Name:     d.stringEntry(dict, "NM"),
		Modified: d.stringEntry(dict, "M"),
		URI:      d.annotationURI(dict),
	}
	if subtype := dict.NameEntry("Subtype"); subtype != nil {
		a.Subtype = *subtype
	}
	if flags := dict.IntEntry("F"); flags != nil {
		a.Flags = *flags
	}
	if o, found := dict.Find("Rect"); found {
		if rect, err := d.ctx.DereferenceArray(o); err == nil {
			a.Rect = numbers(rect)
		}
	}
	return a
}

func (d *Document) annotationURI(dict types.Dict) string {
	if uri := d.stringEntry(dict, "URI"); uri != "" {
		return uri
	}
	o, found := dict.Find("A")
	if !found || o == nil {
		return ""
	}
	action, err := d.ctx.DereferenceDict(o)
	if err != nil || action == nil {
		return ""
	}
	if s := action.NameEntry("S"); s != nil && *s == "URI" {
		return d.stringEntry(action, "URI")
	}
	return ""
}

// stringEntry decodes a string or hex literal entry, empty when absent or
// malformed.
func (d *Document) stringEntry(dict types.Dict, key string) string {
	o, found := dict.Find(key)
	if !found || o == nil {
		return ""
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

func numbers(arr types.Array) []float64 {
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case types.Integer:
			out = append(out, float64(v.Value()))
		case types.Float:
			out = append(out, v.Value())
		}
	}
	return out
}
