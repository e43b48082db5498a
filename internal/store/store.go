package store

import (
	"context"
	"errors"

	"github.com/emrgen/manga/internal/model"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrStoreNotFound    = errors.New("store not found")
)

// Fields is the generic field tree of a stored document. Documents read back
// from a store carry their id under the "id" key.
type Fields = map[string]any

const idField = "id"

// DocumentStore is the remote document store the services run against.
type DocumentStore interface {
	// CreateDocument stores a new document and returns its generated id.
	CreateDocument(ctx context.Context, collection string, fields Fields) (string, error)
	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, collection, id string) (Fields, error)
	// UpdateDocument merges the top level fields into an existing document.
	// Array fields are overwritten whole.
	UpdateDocument(ctx context.Context, collection, id string, fields Fields) error
	// SetDocument creates or overwrites a document under the given id.
	SetDocument(ctx context.Context, collection, id string, fields Fields) error
	// DeleteDocument deletes a document by id.
	DeleteDocument(ctx context.Context, collection, id string) error
	// ListDocuments retrieves every document of a collection.
	ListDocuments(ctx context.Context, collection string) ([]Fields, error)
}

type DocumentBackupStore interface {
	// ListDocumentBackups retrieves the backups of a document, newest first.
	ListDocumentBackups(ctx context.Context, collection, id string) ([]*model.DocumentBackup, error)
	// PruneDocumentBackups keeps the newest keep backups of every document.
	PruneDocumentBackups(ctx context.Context, keep int) (int64, error)
}

// Store is a document store that also keeps backups of overwritten documents.
type Store interface {
	DocumentStore
	DocumentBackupStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

// merge copies the top level fields of src over dst.
func merge(dst, src Fields) Fields {
	if dst == nil {
		dst = make(Fields, len(src))
	}
	for k, v := range src {
		if k == idField {
			continue
		}
		dst[k] = v
	}
	return dst
}

// content drops the id key, ids live outside the stored content.
func content(fields Fields) Fields {
	return merge(make(Fields, len(fields)), fields)
}

func withID(fields Fields, id string) Fields {
	if fields == nil {
		fields = make(Fields, 1)
	}
	fields[idField] = id
	return fields
}

// Kind returns the "type" discriminator of a document, if any.
func Kind(fields Fields) string {
	kind, _ := fields["type"].(string)
	return kind
}
