package model

import "time"

// DocumentBackup represents a backup of a document
// we can keep track of the changes made to a document by storing its backups
// the backups are automatically created before a document is overwritten
type DocumentBackup struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID  string `gorm:"not null;index:idx_document_backups_document"`
	Collection  string `gorm:"not null;index:idx_document_backups_document"`
	Version     int64  `gorm:"not null"`
	Content     []byte
	Compression string
	CreatedAt   time.Time
}

func (DocumentBackup) TableName() string {
	return "document_backups"
}
