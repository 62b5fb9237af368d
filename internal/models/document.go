package models

import "time"

// Document represents the main record for an extraction job in Firestore.
// It tracks the overall status and metadata of the file.
type Document struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	AnnotatedPages      int       `firestore:"annotatedPages,omitempty"`
	AnnotationCount     int       `firestore:"annotationCount,omitempty"`
	Canceled            bool      `firestore:"canceled,omitempty"`
	CoverageDegraded    bool      `firestore:"coverageDegraded,omitempty"`
	TextGCSUri          string    `firestore:"textGcsUri,omitempty"`
	AnnotationsGCSUri   string    `firestore:"annotationsGcsUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}

// Status values of a Document.
const (
	StatusExtracting = "EXTRACTING"
	StatusExtracted  = "EXTRACTED"
	StatusCanceled   = "CANCELED"
	StatusFailed     = "FAILED"
)
