package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a new document with its reader sets.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.RequiredReaders = append([]string(nil), doc.RequiredReaders...)
	doc.ConfirmedReaders = append([]string(nil), doc.ConfirmedReaders...)
	doc.HasPendingReaders = len(doc.PendingReaders()) > 0
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return copyDoc(doc), nil
}

// List returns documents newest-first, optionally only those with pending
// readers.
func (r *MemoryRepo) List(ctx context.Context, onlyPending bool, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	docs := make([]Document, 0, len(r.data))
	for _, doc := range r.data {
		if onlyPending && !doc.HasPendingReaders {
			continue
		}
		docs = append(docs, copyDoc(doc))
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].PublishedAt.After(docs[j].PublishedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// AddConfirmedReader appends the user to the confirmed set. The check and
// the write happen under one lock, so a double confirm by the same user
// cannot slip through.
func (r *MemoryRepo) AddConfirmedReader(ctx context.Context, documentID, userID string, confirmedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = confirmedAt
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range doc.ConfirmedReaders {
		if id == userID {
			return ErrAlreadyConfirmed
		}
	}
	doc.ConfirmedReaders = append(doc.ConfirmedReaders, userID)
	doc.HasPendingReaders = len(doc.PendingReaders()) > 0
	r.data[documentID] = doc
	return nil
}

// SetSummary stores the summary result for a document.
func (r *MemoryRepo) SetSummary(ctx context.Context, documentID string, result SummaryResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.Summary = result
	r.data[documentID] = doc
	return nil
}

func copyDoc(doc Document) Document {
	doc.RequiredReaders = append([]string(nil), doc.RequiredReaders...)
	doc.ConfirmedReaders = append([]string(nil), doc.ConfirmedReaders...)
	return doc
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
