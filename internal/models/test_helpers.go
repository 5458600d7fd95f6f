package models

// NewTestContentStore creates an in-memory content store preloaded with items
func NewTestContentStore(items ...Content) ContentStore {
	store := NewInMemoryContentStore()
	_ = store.ReloadAll(items)
	return store
}
