package model

import "time"

// Document is one stored document of a collection. Content holds the JSON
// encoded fields, compressed with the codec named by Compression.
type Document struct {
	ID          string `gorm:"primaryKey;uuid;not null;"`
	Collection  string `gorm:"primaryKey;not null;index:idx_documents_collection_kind"`
	Kind        string `gorm:"index:idx_documents_collection_kind"` // manga, book, published_manga, etc.
	Version     int64  `gorm:"not null;default:0"`
	Content     []byte `gorm:"not null"`
	Compression string // the compression algorithm used to compress the document content
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Document) TableName() string {
	return "documents"
}

// Backup returns a backup row holding the current content and version.
func (d *Document) Backup() *DocumentBackup {
	return &DocumentBackup{
		DocumentID:  d.ID,
		Collection:  d.Collection,
		Version:     d.Version,
		Content:     append([]byte(nil), d.Content...),
		Compression: d.Compression,
	}
}
