package notify

import "time"

// Notification categories mirror the kinds of feed entries the workflows emit.
const (
	CategoryNote    = "note"
	CategoryConfirm = "confirmation"
	CategorySummary = "summary"
)

// Notification is an append-only entry in a document's feed.
type Notification struct {
	ID         string
	DocumentID string
	AuthorID   string
	Body       string
	Category   string
	CreatedAt  time.Time
}

// Activity is a to-do reminder assigned to a user for a document.
type Activity struct {
	ID         string
	DocumentID string
	AssigneeID string
	Subject    string
	Body       string
	DueDate    time.Time
	CreatedAt  time.Time
}
