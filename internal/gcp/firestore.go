package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// PagesCollection is the sub-collection holding one record per page of a document.
const PagesCollection = "pages"

// PageRef returns the record of page pageNumber below a document.
func PageRef(doc *firestore.DocumentRef, pageNumber int) *firestore.DocumentRef {
	return doc.Collection(PagesCollection).Doc(PageDocID(pageNumber))
}

// PageDocID is the ID of a page's document in the pages sub-collection.
// Zero padding keeps lexical and page order the same.
func PageDocID(pageNumber int) string {
	return fmt.Sprintf("%05d", pageNumber)
}
