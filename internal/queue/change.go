package queue

import (
	"context"
	"encoding/json"
	"time"
)

type ChangeKind string

const (
	ProjectCreated     ChangeKind = "project.created"
	ProjectUpdated     ChangeKind = "project.updated"
	PageAdded          ChangeKind = "page.added"
	PageDeleted        ChangeKind = "page.deleted"
	PageDuplicated     ChangeKind = "page.duplicated"
	PanelDrawingsSaved ChangeKind = "panel.drawings_saved"
	CurrentPageChanged ChangeKind = "project.current_page"
	ProjectPublished   ChangeKind = "project.published"
	ProjectUnpublished ChangeKind = "project.unpublished"
)

// ProjectChange describes one successful write to a project document.
type ProjectChange struct {
	Kind      ChangeKind `json:"kind"`
	ProjectID string     `json:"projectId"`
	PageID    string     `json:"pageId,omitempty"`
	PanelID   string     `json:"panelId,omitempty"`
	At        time.Time  `json:"at"`
}

func (c *ProjectChange) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

// ChangePublisher announces project changes to downstream consumers.
// Publishing is best effort, a failed publish never fails the write.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change *ProjectChange) error
	Close() error
}

type NopPublisher struct{}

func NewNopPublisher() NopPublisher {
	return NopPublisher{}
}

func (NopPublisher) PublishChange(context.Context, *ProjectChange) error { return nil }

func (NopPublisher) Close() error { return nil }
