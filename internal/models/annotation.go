package models

// Annotation summarizes one annotation dictionary of a page.
type Annotation struct {
	Page     int       `json:"page" firestore:"page"`
	Subtype  string    `json:"subtype" firestore:"subtype"`
	Contents string    `json:"contents,omitempty" firestore:"contents,omitempty"`
	Author   string    `json:"author,omitempty" firestore:"author,omitempty"`
	Name     string    `json:"name,omitempty" firestore:"name,omitempty"`
	Modified string    `json:"modified,omitempty" firestore:"modified,omitempty"`
	URI      string    `json:"uri,omitempty" firestore:"uri,omitempty"`
	Flags    int       `json:"flags,omitempty" firestore:"flags,omitempty"`
	Rect     []float64 `json:"rect,omitempty" firestore:"rect,omitempty"`
}

// PageAnnotations is the record written for every page of a document,
// whether or not the page has annotations or text.
type PageAnnotations struct {
	PageNumber int  `json:"pageNumber" firestore:"pageNumber"`
	HasContent bool `json:"hasContent" firestore:"hasContent"`
	// ReportedPageNo is the engine's page counter when the page was handed
	// over. For pages without content it is PageNumber-1.
	ReportedPageNo int          `json:"reportedPageNo" firestore:"reportedPageNo"`
	Annotations    []Annotation `json:"annotations" firestore:"annotations"`
}
