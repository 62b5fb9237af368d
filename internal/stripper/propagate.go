package stripper

import (
	"fmt"
	"reflect"
)

// bindDocument resolves the owner the wrapped sequence must report so the
// engine accepts it in place of its own. captured is the document received
// at StartDocument.
func bindDocument(captured Document, pages PageSequence) (Document, error) {
	if captured == nil {
		return nil, ErrNoDocumentContext
	}
	if pages == nil {
		return nil, ErrNoPageSequence
	}
	owner := pages.Document()
	if owner == nil {
		binder, ok := pages.(DocumentBinder)
		if !ok {
			return nil, ErrNoDocumentContext
		}
		if err := binder.BindDocument(captured); err != nil {
			return nil, fmt.Errorf("failed to bind document to page sequence: %w", err)
		}
		return captured, nil
	}
	if !sameDocument(owner, captured) {
		return nil, ErrDocumentMismatch
	}
	return captured, nil
}

// sameDocument compares two handles without panicking on uncomparable types.
func sameDocument(a, b Document) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
