package models

import (
	"errors"
	"sync/atomic"
)

// ErrNotFound is returned when an entity is not found in the data store
var ErrNotFound = errors.New("entity not found")

// ContentStore provides thread-safe access to the content catalog snapshot
// without global variables. The catalog itself is owned by an external
// service; this store only mirrors what was last loaded.
type ContentStore interface {
	// Read operations (hot path)
	GetContent(contentID string) *Content
	GetAllContent() []Content

	// Write operations (reload path)
	ReloadAll(items []Content) error
	UpsertContent(item Content) error
	DeleteContent(contentID string) error
}

// contentSnapshot represents an immutable snapshot of the catalog
type contentSnapshot struct {
	items []Content
	index map[string]*Content
}

// InMemoryContentStore implements ContentStore with atomic snapshot updates
type InMemoryContentStore struct {
	data atomic.Pointer[contentSnapshot]
}

// NewInMemoryContentStore creates a new ContentStore instance
func NewInMemoryContentStore() *InMemoryContentStore {
	store := &InMemoryContentStore{}
	store.data.Store(&contentSnapshot{
		items: make([]Content, 0),
		index: make(map[string]*Content),
	})
	return store
}

// GetContent retrieves a content item by ID
func (s *InMemoryContentStore) GetContent(contentID string) *Content {
	data := s.data.Load()
	if c, ok := data.index[contentID]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// GetAllContent returns every item in the snapshot
func (s *InMemoryContentStore) GetAllContent() []Content {
	data := s.data.Load()
	// Return a copy to prevent external modification
	result := make([]Content, len(data.items))
	copy(result, data.items)
	return result
}

// ReloadAll atomically replaces the catalog
func (s *InMemoryContentStore) ReloadAll(items []Content) error {
	s.data.Store(buildContentSnapshot(items))
	return nil
}

// UpsertContent inserts or replaces a single item
func (s *InMemoryContentStore) UpsertContent(item Content) error {
	if item.ID == "" {
		return errors.New("content id required")
	}
	current := s.data.Load()
	items := make([]Content, 0, len(current.items)+1)
	replaced := false
	for _, c := range current.items {
		if c.ID == item.ID {
			items = append(items, item)
			replaced = true
			continue
		}
		items = append(items, c)
	}
	if !replaced {
		items = append(items, item)
	}
	s.data.Store(buildContentSnapshot(items))
	return nil
}

// DeleteContent removes an item from the snapshot
func (s *InMemoryContentStore) DeleteContent(contentID string) error {
	current := s.data.Load()
	if _, ok := current.index[contentID]; !ok {
		return ErrNotFound
	}
	items := make([]Content, 0, len(current.items))
	for _, c := range current.items {
		if c.ID != contentID {
			items = append(items, c)
		}
	}
	s.data.Store(buildContentSnapshot(items))
	return nil
}

func buildContentSnapshot(items []Content) *contentSnapshot {
	snap := &contentSnapshot{
		items: items,
		index: make(map[string]*Content, len(items)),
	}
	for i := range snap.items {
		snap.index[snap.items[i].ID] = &snap.items[i]
	}
	return snap
}
