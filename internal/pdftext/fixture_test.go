package pdftext

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// fixturePage describes one page of a generated test PDF. A page with empty
// text gets no /Contents entry.
type fixturePage struct {
	text   string
	annots []string
}

// buildPDF writes a minimal PDF with a correct cross-reference table.
func buildPDF(t *testing.T, pages []fixturePage) []byte {
	t.Helper()

	// Objects 1..3 are the catalog, the page tree and the font.
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}
	add("<< /Type /Catalog /Pages 2 0 R >>")
	add("") // page tree, filled in once the kids are known
	add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, p := range pages {
		var extra strings.Builder
		if p.text != "" {
			content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", p.text)
			ref := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
			fmt.Fprintf(&extra, " /Contents %d 0 R", ref)
		}
		if len(p.annots) > 0 {
			var refs []string
			for _, a := range p.annots {
				refs = append(refs, fmt.Sprintf("%d 0 R", add(a)))
			}
			fmt.Fprintf(&extra, " /Annots [%s]", strings.Join(refs, " "))
		}
		ref := add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>%s >>", extra.String()))
		kids = append(kids, fmt.Sprintf("%d 0 R", ref))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

const (
	textNote = "<< /Type /Annot /Subtype /Text /Rect [100 100 120 120] /Contents (Check this figure) /T (Reviewer) /F 4 >>"
	linkNote = "<< /Type /Annot /Subtype /Link /Rect [72 700 200 715] /Border [0 0 0] /A << /S /URI /URI (https://example.com/manual) >> >>"
)

func openFixture(t *testing.T, pages []fixturePage) *Document {
	t.Helper()
	doc, err := Open(buildPDF(t, pages))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}
