package stripper

// interceptedPages yields the pages of inner unchanged, calling onBlank for
// every page without content before handing it out.
type interceptedPages struct {
	doc     Document
	inner   PageSequence
	onBlank func(Page)
}

// intercept wraps inner. doc is the document the wrapper reports as its owner.
func intercept(doc Document, inner PageSequence, onBlank func(Page)) *interceptedPages {
	return &interceptedPages{doc: doc, inner: inner, onBlank: onBlank}
}

func (p *interceptedPages) Document() Document {
	return p.doc
}

func (p *interceptedPages) Next() (Page, error) {
	page, err := p.inner.Next()
	if err != nil {
		return nil, err
	}
	if !page.HasContent() {
		p.onBlank(page)
	}
	return page, nil
}
