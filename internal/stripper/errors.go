package stripper

import (
	"errors"
	"fmt"
)

var (
	// ErrNilEngine is returned by Extract when no engine is given.
	ErrNilEngine = errors.New("stripper: nil engine")

	// ErrNoDocumentContext means no document was captured at StartDocument, or
	// the page sequence neither reports nor accepts one.
	ErrNoDocumentContext = errors.New("stripper: no document context for page sequence")

	// ErrNoPageSequence means the engine handed a nil sequence to TraversePages.
	ErrNoPageSequence = errors.New("stripper: nil page sequence")

	// ErrDocumentMismatch means the page sequence belongs to another document
	// than the one captured at StartDocument.
	ErrDocumentMismatch = errors.New("stripper: page sequence belongs to a different document")
)

// ExtractError carries the page an engine failed on.
type ExtractError struct {
	// Op is the engine operation that failed (e.g. "PageDict", "GetPlainText").
	Op string

	// Page is the 1-based page number, 0 when not tied to a page.
	Page int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract: %s failed on page %d: %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}
