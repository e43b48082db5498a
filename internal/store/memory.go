package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ DocumentStore = (*MemoryStore)(nil)

type memoryDocument struct {
	data    []byte
	version int64
	seq     int64
}

// MemoryStore keeps documents as JSON bytes in process memory, so callers
// never share maps with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	seq  int64
	docs map[string]map[string]*memoryDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]*memoryDocument),
	}
}

func (m *MemoryStore) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	id := uuid.New().String()
	if err := m.SetDocument(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, collection, id string) (Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.get(collection, id)
	if err != nil {
		return nil, err
	}

	return decodeFields(doc.data, id)
}

func (m *MemoryStore) UpdateDocument(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.get(collection, id)
	if err != nil {
		return err
	}

	var current Fields
	if err := json.Unmarshal(doc.data, &current); err != nil {
		return fmt.Errorf("decode document %s: %w", id, err)
	}

	data, err := json.Marshal(merge(current, fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	doc.data = data
	doc.version++
	m.seq++
	doc.seq = m.seq

	return nil
}

func (m *MemoryStore) SetDocument(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(content(fields))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.docs[collection]
	if !ok {
		docs = make(map[string]*memoryDocument)
		m.docs[collection] = docs
	}

	m.seq++
	var version int64
	if prev, ok := docs[id]; ok {
		version = prev.version
	}
	docs[id] = &memoryDocument{data: data, version: version + 1, seq: m.seq}

	return nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.get(collection, id); err != nil {
		return err
	}
	delete(m.docs[collection], id)

	return nil
}

// ListDocuments returns the documents of a collection, most recently written first.
func (m *MemoryStore) ListDocuments(ctx context.Context, collection string) ([]Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type entry struct {
		id  string
		doc *memoryDocument
	}
	entries := make([]entry, 0, len(m.docs[collection]))
	for id, doc := range m.docs[collection] {
		entries = append(entries, entry{id: id, doc: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].doc.seq > entries[j].doc.seq })

	out := make([]Fields, 0, len(entries))
	for _, e := range entries {
		fields, err := decodeFields(e.doc.data, e.id)
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}

	return out, nil
}

// Version returns the write counter of a document.
func (m *MemoryStore) Version(collection, id string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.get(collection, id)
	if err != nil {
		return 0, err
	}
	return doc.version, nil
}

func (m *MemoryStore) get(collection, id string) (*memoryDocument, error) {
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
	}
	return doc, nil
}

func decodeFields(data []byte, id string) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return withID(fields, id), nil
}
