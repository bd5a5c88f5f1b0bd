package notify

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateNotification appends to the document's feed.
func (r *PGRepo) CreateNotification(ctx context.Context, n Notification) error {
	const query = `
INSERT INTO notifications (id, document_id, author_id, body, category, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, n.ID, n.DocumentID, n.AuthorID, n.Body, n.Category, n.CreatedAt)
	return err
}

// ListByDocument returns the document's feed, newest first.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, document_id, author_id, body, category, created_at
FROM notifications
WHERE document_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.DocumentID, &n.AuthorID, &n.Body, &n.Category, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateActivity records a to-do reminder.
func (r *PGRepo) CreateActivity(ctx context.Context, a Activity) error {
	const query = `
INSERT INTO activities (id, document_id, assignee_id, subject, body, due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.DocumentID, a.AssigneeID, a.Subject, a.Body, a.DueDate, a.CreatedAt)
	return err
}

// ListByAssignee returns the user's activities ordered by due date.
func (r *PGRepo) ListByAssignee(ctx context.Context, assigneeID string, limit, offset int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, document_id, assignee_id, subject, body, due_date, created_at
FROM activities
WHERE assignee_id = $1
ORDER BY due_date ASC, created_at ASC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, assigneeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.AssigneeID, &a.Subject, &a.Body, &a.DueDate, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
