package notify

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu            sync.RWMutex
	notifications map[string][]Notification // documentID -> feed
	activities    map[string][]Activity     // assigneeID -> activities
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		notifications: make(map[string][]Notification),
		activities:    make(map[string][]Activity),
	}
}

// CreateNotification appends to the document's feed.
func (r *MemoryRepo) CreateNotification(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.DocumentID] = append(r.notifications[n.DocumentID], n)
	return nil
}

// ListByDocument returns the document's feed, newest first.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	feed := append([]Notification(nil), r.notifications[documentID]...)
	r.mu.RUnlock()

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return page(feed, limit, offset), nil
}

// CreateActivity records a to-do reminder.
func (r *MemoryRepo) CreateActivity(ctx context.Context, a Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[a.AssigneeID] = append(r.activities[a.AssigneeID], a)
	return nil
}

// ListByAssignee returns the user's activities ordered by due date.
func (r *MemoryRepo) ListByAssignee(ctx context.Context, assigneeID string, limit, offset int) ([]Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	items := append([]Activity(nil), r.activities[assigneeID]...)
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})
	return page(items, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var _ Repo = (*MemoryRepo)(nil)
