package models

// These structs define the JSON payloads for HTTP requests and responses
// between the Cloud Workflow and the extraction functions.

// ExtractRequest is the input for the extract-http function. GCSUri is either
// a single object (gs://bucket/file.pdf) or a prefix ending in "/", in which
// case every .pdf object below it is extracted.
type ExtractRequest struct {
	GCSUri      string `json:"gcsUri"`
	ExecutionID string `json:"executionId"`
}

// ExtractResponse is the output of the extract-http function.
type ExtractResponse struct {
	Status    string          `json:"status"`
	Documents []ExtractedFile `json:"documents"`
}

// ExtractedFile reports the outcome for one source object.
type ExtractedFile struct {
	SourceGCSUri      string `json:"sourceGcsUri"`
	DocumentID        string `json:"documentId"`
	Duplicate         bool   `json:"duplicate,omitempty"`
	PageCount         int    `json:"pageCount"`
	AnnotatedPages    int    `json:"annotatedPages"`
	AnnotationCount   int    `json:"annotationCount"`
	Canceled          bool   `json:"canceled,omitempty"`
	CoverageDegraded  bool   `json:"coverageDegraded,omitempty"`
	TextGCSUri        string `json:"textGcsUri,omitempty"`
	AnnotationsGCSUri string `json:"annotationsGcsUri,omitempty"`
}

// WorkflowPayload is the argument handed to the downstream workflow.
type WorkflowPayload struct {
	DocumentID        string `json:"documentId"`
	PageCount         int    `json:"pageCount"`
	TextGCSUri        string `json:"textGcsUri"`
	AnnotationsGCSUri string `json:"annotationsGcsUri"`
}
