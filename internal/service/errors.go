package service

import "errors"

var (
	// ErrProjectNotFound is returned when a project does not exist or the document is not a manga.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidProject is returned when a write would store a project that fails
	// the project schema or its page invariants.
	ErrInvalidProject = errors.New("invalid project")
	// ErrNotPublished is returned when a project has no public record.
	ErrNotPublished = errors.New("project is not published")
	// ErrBackupNotFound is returned when a project has no backup with the requested version.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrBackupsUnsupported is returned when the configured store keeps no backups.
	ErrBackupsUnsupported = errors.New("document store does not keep backups")
)
