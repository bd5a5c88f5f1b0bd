package notify

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repo defines persistence for notifications and activities.
type Repo interface {
	CreateNotification(ctx context.Context, n Notification) error
	ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]Notification, error)
	CreateActivity(ctx context.Context, a Activity) error
	ListByAssignee(ctx context.Context, assigneeID string, limit, offset int) ([]Activity, error)
}
