package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document and its required reader set in one
// transaction.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const docQuery = `
INSERT INTO documents (
    id,
    title,
    description,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    published_at,
    created_by,
    has_pending_readers
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	var fileName, mimeType, storageKey sql.NullString
	if doc.FileName != "" {
		fileName = sql.NullString{String: doc.FileName, Valid: true}
	}
	if doc.MimeType != "" {
		mimeType = sql.NullString{String: doc.MimeType, Valid: true}
	}
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}

	if _, err := tx.ExecContext(
		ctx,
		docQuery,
		doc.ID,
		doc.Title,
		doc.Description,
		fileName,
		mimeType,
		doc.SizeBytes,
		storageProvider,
		storageKey,
		doc.PublishedAt,
		doc.CreatedBy,
		len(doc.RequiredReaders) > 0,
	); err != nil {
		return err
	}

	const readerQuery = `
INSERT INTO document_required_readers (document_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	for _, userID := range doc.RequiredReaders {
		if _, err := tx.ExecContext(ctx, readerQuery, doc.ID, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID returns a document with both reader sets.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT id, title, description, file_name, mime_type, size_bytes, storage_provider, storage_key,
       published_at, created_by, summary_kind, summary_text, summary_detail, summary_generated_at,
       has_pending_readers
FROM documents
WHERE id = $1`

	doc, err := r.scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		return Document{}, err
	}

	doc.RequiredReaders, err = r.readerSet(ctx, "document_required_readers", documentID)
	if err != nil {
		return Document{}, err
	}
	doc.ConfirmedReaders, err = r.readerSet(ctx, "document_confirmed_readers", documentID)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// List returns documents newest-first; onlyPending restricts to documents
// with at least one pending reader, served by the stored flag.
func (r *PGRepo) List(ctx context.Context, onlyPending bool, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT id, title, description, file_name, mime_type, size_bytes, storage_provider, storage_key,
       published_at, created_by, summary_kind, summary_text, summary_detail, summary_generated_at,
       has_pending_readers
FROM documents`
	if onlyPending {
		query += `
WHERE has_pending_readers`
	}
	query += `
ORDER BY published_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].RequiredReaders, err = r.readerSet(ctx, "document_required_readers", out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ConfirmedReaders, err = r.readerSet(ctx, "document_confirmed_readers", out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AddConfirmedReader records a confirmation. The primary key on the
// confirmed-readers table makes the check-then-write atomic: a conflicting
// insert affects zero rows, which maps to ErrAlreadyConfirmed.
func (r *PGRepo) AddConfirmedReader(ctx context.Context, documentID, userID string, confirmedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, documentID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	const insertQuery = `
INSERT INTO document_confirmed_readers (document_id, user_id, confirmed_at)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`
	res, err := tx.ExecContext(ctx, insertQuery, documentID, userID, confirmedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyConfirmed
	}

	if err := r.refreshPendingFlag(ctx, tx, documentID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetSummary stores the summary result for a document.
func (r *PGRepo) SetSummary(ctx context.Context, documentID string, result SummaryResult) error {
	const query = `
UPDATE documents
SET summary_kind = $1, summary_text = $2, summary_detail = $3, summary_generated_at = $4
WHERE id = $5`

	var generatedAt sql.NullTime
	if result.GeneratedAt != nil {
		generatedAt = sql.NullTime{Time: *result.GeneratedAt, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, string(result.Kind), result.Text, result.Detail, generatedAt, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var fileName, mimeType, storageProvider, storageKey sql.NullString
	var summaryKind, summaryText, summaryDetail sql.NullString
	var summaryGeneratedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Description,
		&fileName,
		&mimeType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&doc.PublishedAt,
		&doc.CreatedBy,
		&summaryKind,
		&summaryText,
		&summaryDetail,
		&summaryGeneratedAt,
		&doc.HasPendingReaders,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if fileName.Valid {
		doc.FileName = fileName.String
	}
	if mimeType.Valid {
		doc.MimeType = mimeType.String
	}
	if storageProvider.Valid {
		doc.StorageProvider = storageProvider.String
	}
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	if summaryKind.Valid {
		doc.Summary.Kind = SummaryKind(summaryKind.String)
	}
	if summaryText.Valid {
		doc.Summary.Text = summaryText.String
	}
	if summaryDetail.Valid {
		doc.Summary.Detail = summaryDetail.String
	}
	if summaryGeneratedAt.Valid {
		t := summaryGeneratedAt.Time
		doc.Summary.GeneratedAt = &t
	}
	return doc, nil
}

func (r *PGRepo) readerSet(ctx context.Context, table, documentID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT user_id FROM %s WHERE document_id = $1 ORDER BY user_id`, table)
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

func (r *PGRepo) refreshPendingFlag(ctx context.Context, tx *sql.Tx, documentID string) error {
	const query = `
UPDATE documents
SET has_pending_readers = EXISTS (
    SELECT 1
    FROM document_required_readers req
    WHERE req.document_id = documents.id
      AND NOT EXISTS (
          SELECT 1
          FROM document_confirmed_readers conf
          WHERE conf.document_id = req.document_id
            AND conf.user_id = req.user_id
      )
)
WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, documentID)
	return err
}

var _ DocumentsRepo = (*PGRepo)(nil)
