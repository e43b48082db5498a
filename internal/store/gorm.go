package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emrgen/manga/internal/compress"
	"github.com/emrgen/manga/internal/model"
)

func NewGormStore(db *gorm.DB, codec compress.Compress) *GormStore {
	return &GormStore{
		db:       db,
		compress: codec,
	}
}

var _ Store = (*GormStore)(nil)

// GormStore keeps documents as compressed JSON rows. Every overwrite first
// copies the previous content into a DocumentBackup.
type GormStore struct {
	db       *gorm.DB
	compress compress.Compress
}

func (g *GormStore) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	id := uuid.New().String()

	doc := &model.Document{ID: id, Collection: collection, Version: 1}
	if err := g.encode(doc, content(fields)); err != nil {
		return "", err
	}

	if err := g.db.WithContext(ctx).Create(doc).Error; err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	return id, nil
}

func (g *GormStore) GetDocument(ctx context.Context, collection, id string) (Fields, error) {
	doc, err := g.getDocument(g.db.WithContext(ctx), collection, id)
	if err != nil {
		return nil, err
	}

	fields, err := g.decode(doc)
	if err != nil {
		return nil, err
	}

	return withID(fields, id), nil
}

func (g *GormStore) UpdateDocument(ctx context.Context, collection, id string, fields Fields) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := g.getDocument(tx.Clauses(clause.Locking{Strength: "UPDATE"}), collection, id)
		if err != nil {
			return err
		}

		current, err := g.decode(doc)
		if err != nil {
			return err
		}

		return g.overwrite(tx, doc, merge(current, fields))
	})
}

func (g *GormStore) SetDocument(ctx context.Context, collection, id string, fields Fields) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := g.getDocument(tx, collection, id)
		if errors.Is(err, ErrDocumentNotFound) {
			doc = &model.Document{ID: id, Collection: collection, Version: 1}
			if err := g.encode(doc, content(fields)); err != nil {
				return err
			}
			return tx.Create(doc).Error
		}
		if err != nil {
			return err
		}

		return g.overwrite(tx, doc, content(fields))
	})
}

func (g *GormStore) DeleteDocument(ctx context.Context, collection, id string) error {
	res := g.db.WithContext(ctx).Where("id = ? AND collection = ?", id, collection).Delete(&model.Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}

	return nil
}

func (g *GormStore) ListDocuments(ctx context.Context, collection string) ([]Fields, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Where("collection = ?", collection).Order("updated_at desc").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]Fields, 0, len(docs))
	for _, doc := range docs {
		fields, err := g.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, withID(fields, doc.ID))
	}

	return out, nil
}

func (g *GormStore) ListDocumentBackups(ctx context.Context, collection, id string) ([]*model.DocumentBackup, error) {
	var backups []*model.DocumentBackup
	err := g.db.WithContext(ctx).
		Where("document_id = ? AND collection = ?", id, collection).
		Order("version desc").
		Find(&backups).Error
	return backups, err
}

func (g *GormStore) PruneDocumentBackups(ctx context.Context, keep int) (int64, error) {
	type owner struct {
		DocumentID string
		Collection string
	}

	db := g.db.WithContext(ctx)

	var owners []owner
	err := db.Model(&model.DocumentBackup{}).
		Select("document_id, collection").
		Group("document_id, collection").
		Having("count(*) > ?", keep).
		Scan(&owners).Error
	if err != nil {
		return 0, fmt.Errorf("list backup owners: %w", err)
	}

	var deleted int64
	for _, o := range owners {
		var keepIDs []uint64
		err := db.Model(&model.DocumentBackup{}).
			Where("document_id = ? AND collection = ?", o.DocumentID, o.Collection).
			Order("version desc").
			Limit(keep).
			Pluck("id", &keepIDs).Error
		if err != nil {
			return deleted, err
		}

		q := db.Where("document_id = ? AND collection = ?", o.DocumentID, o.Collection)
		if len(keepIDs) > 0 {
			q = q.Where("id NOT IN ?", keepIDs)
		}
		res := q.Delete(&model.DocumentBackup{})
		if res.Error != nil {
			return deleted, res.Error
		}
		deleted += res.RowsAffected
	}

	return deleted, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx, compress: g.compress})
	})
}

func (g *GormStore) getDocument(db *gorm.DB, collection, id string) (*model.Document, error) {
	var doc model.Document
	err := db.Where("id = ? AND collection = ?", id, collection).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// overwrite backs up the current row and stores fields as the next version.
func (g *GormStore) overwrite(tx *gorm.DB, doc *model.Document, fields Fields) error {
	if err := tx.Create(doc.Backup()).Error; err != nil {
		return fmt.Errorf("backup document: %w", err)
	}

	prev := doc.Version
	doc.Version++
	if err := g.encode(doc, fields); err != nil {
		return err
	}

	res := tx.Model(&model.Document{}).
		Where("id = ? AND collection = ?", doc.ID, doc.Collection).
		Updates(map[string]any{
			"content":     doc.Content,
			"compression": doc.Compression,
			"kind":        doc.Kind,
			"version":     doc.Version,
		})
	if res.Error != nil {
		return fmt.Errorf("update document: %w", res.Error)
	}

	logrus.Debugf("document %s/%s version %d -> %d", doc.Collection, doc.ID, prev, doc.Version)

	return nil
}

func (g *GormStore) encode(doc *model.Document, fields Fields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	data, err = g.compress.Encode(data)
	if err != nil {
		return fmt.Errorf("compress document: %w", err)
	}

	doc.Content = data
	doc.Compression = g.compress.Name()
	doc.Kind = Kind(fields)

	return nil
}

// decode reads the content with the codec it was written with, which may
// differ from the store's current codec.
func (g *GormStore) decode(doc *model.Document) (Fields, error) {
	codec, err := compress.ByName(doc.Compression)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decode(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("decompress document %s: %w", doc.ID, err)
	}

	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}

	return fields, nil
}
