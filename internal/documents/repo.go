package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents and their
// reader sets. AddConfirmedReader is the privileged write path: it records
// the confirmation regardless of the acting user's own write permissions,
// and it is atomic with respect to the already-confirmed check.
// Implementations maintain the stored HasPendingReaders flag whenever either
// reader set changes.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	List(ctx context.Context, onlyPending bool, limit, offset int) ([]Document, error)
	AddConfirmedReader(ctx context.Context, documentID, userID string, confirmedAt time.Time) error
	SetSummary(ctx context.Context, documentID string, result SummaryResult) error
}
