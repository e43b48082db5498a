package service

import (
	"context"
	"fmt"
	"time"

	"github.com/emrgen/manga/internal/compress"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/model"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/sanitize"
	"github.com/emrgen/manga/internal/store"
)

// ProjectBackup summarizes one stored backup of a project.
type ProjectBackup struct {
	Version    int64     `json:"version"`
	Title      string    `json:"title"`
	TotalPages int       `json:"totalPages"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewProjectBackupService creates a new ProjectBackupService. backups may be
// nil when the store keeps no backups.
func NewProjectBackupService(projects *MangaProjectService, backups store.DocumentBackupStore) *ProjectBackupService {
	return &ProjectBackupService{
		projects: projects,
		backups:  backups,
	}
}

// ProjectBackupService reads and restores the backups taken before each
// project overwrite.
type ProjectBackupService struct {
	projects *MangaProjectService
	backups  store.DocumentBackupStore
}

// ListBackups lists the backups of a project, newest first.
func (b *ProjectBackupService) ListBackups(ctx context.Context, id string) ([]ProjectBackup, error) {
	rows, err := b.list(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectBackup, 0, len(rows))
	for _, row := range rows {
		project, err := decodeBackup(id, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectBackup{
			Version:    row.Version,
			Title:      project.Title,
			TotalPages: project.TotalPages,
			CreatedAt:  row.CreatedAt,
		})
	}

	return out, nil
}

// GetBackup returns the project as it was at the given version.
func (b *ProjectBackupService) GetBackup(ctx context.Context, id string, version int64) (*manga.Project, error) {
	rows, err := b.list(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Version == version {
			return decodeBackup(id, row)
		}
	}

	return nil, fmt.Errorf("%w: %s@%d", ErrBackupNotFound, id, version)
}

// RestoreBackup overwrites the project with a backup. The overwritten state is
// itself backed up by the store.
func (b *ProjectBackupService) RestoreBackup(ctx context.Context, id string, version int64) (*manga.Project, error) {
	project, err := b.GetBackup(ctx, id, version)
	if err != nil {
		return nil, err
	}

	project.UpdatedAt = b.projects.stamp()
	fields, err := sanitize.ToFields(project)
	if err != nil {
		return nil, err
	}

	if err := b.projects.store.SetDocument(ctx, ProjectCollection, id, fields); err != nil {
		return nil, b.projects.storeError(id, err)
	}

	b.projects.announce(ctx, queue.ProjectUpdated, id, "", "")
	return project, nil
}

func (b *ProjectBackupService) list(ctx context.Context, id string) ([]*model.DocumentBackup, error) {
	if b.backups == nil {
		return nil, ErrBackupsUnsupported
	}

	if _, err := b.projects.GetProject(ctx, id); err != nil {
		return nil, err
	}

	return b.backups.ListDocumentBackups(ctx, ProjectCollection, id)
}

func decodeBackup(id string, row *model.DocumentBackup) (*manga.Project, error) {
	codec, err := compress.ByName(row.Compression)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decode(row.Content)
	if err != nil {
		return nil, fmt.Errorf("backup %s@%d: %w", id, row.Version, err)
	}

	project, err := manga.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("backup %s@%d: %w", id, row.Version, err)
	}
	project.ID = id

	return project, nil
}
