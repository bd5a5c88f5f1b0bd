package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"readconfirm-backend/internal/extract"
	"readconfirm-backend/internal/shared/metrics"
	"readconfirm-backend/internal/shared/storage/object"
	"readconfirm-backend/internal/shared/telemetry"
	"readconfirm-backend/internal/summarizer"
)

const summaryTimeout = 60 * time.Second

// Notifier appends entries to a document's notification feed. Posting is
// fire-and-forget: implementations never fail the calling workflow.
type Notifier interface {
	Post(ctx context.Context, documentID, authorID, body, category string)
}

// ActivityScheduler records a to-do reminder for a user.
type ActivityScheduler interface {
	ScheduleActivity(ctx context.Context, documentID, assigneeID, subject, body string, dueDate time.Time) error
}

// Notification categories used by the workflows.
const (
	categoryConfirm = "confirmation"
	categorySummary = "summary"
)

// Service contains the read-tracking and summary workflows.
type Service struct {
	Repo            DocumentsRepo
	Store           object.ObjectStore
	Summarizer      summarizer.Client
	Notifier        Notifier
	Activities      ActivityScheduler
	StorageProvider string
}

// CreateInput carries the fields for a new document. File may be nil when
// no attachment is uploaded.
type CreateInput struct {
	Title           string
	Description     string
	RequiredReaders []string
	FileName        string
	File            io.Reader
}

// Acknowledgment is the toast payload returned by ConfirmReading.
type Acknowledgment struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"type"`
	Sticky   bool   `json:"sticky"`
}

// Create persists a new document and runs the post-creation workflow:
// activities are scheduled for every required reader and, when a file is
// attached, a summary is generated. Summary failures never fail creation.
func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	doc := Document{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		PublishedAt:     time.Now().UTC(),
		CreatedBy:       actorID,
		RequiredReaders: normalizeReaders(in.RequiredReaders),
		StorageProvider: s.StorageProvider,
	}

	if in.File != nil {
		if in.FileName == "" {
			return Document{}, fmt.Errorf("%w: file name is required with an attachment", ErrInvalidInput)
		}
		storageKey, size, mimeType, err := s.Store.Save(ctx, actorID, in.FileName, in.File)
		if err != nil {
			return Document{}, err
		}
		doc.FileName = in.FileName
		doc.MimeType = mimeType
		doc.SizeBytes = size
		doc.StorageKey = storageKey
	}

	doc.HasPendingReaders = len(doc.RequiredReaders) > 0

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	s.onDocumentCreated(ctx, &doc)
	return doc, nil
}

// onDocumentCreated runs after the document is durable. Without required
// readers it does nothing at all: no activities, no summarizer call.
func (s *Service) onDocumentCreated(ctx context.Context, doc *Document) {
	if len(doc.RequiredReaders) == 0 {
		return
	}

	subject := fmt.Sprintf("New internal document: %s", doc.Title)
	body := fmt.Sprintf(
		"A new internal document requires your reading and confirmation: %s. Please review it and confirm at /documents/%s.",
		doc.Title, doc.ID,
	)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, readerID := range doc.RequiredReaders {
		if err := s.Activities.ScheduleActivity(ctx, doc.ID, readerID, subject, body, today); err != nil {
			telemetry.Warn("documents.activity_schedule_failed", map[string]any{
				"document_id": doc.ID,
				"assignee_id": readerID,
				"error":       err.Error(),
			})
		}
	}

	if doc.HasFile() {
		result, err := s.GenerateSummary(ctx, doc.ID)
		if err != nil {
			telemetry.Error("documents.summary_failed", map[string]any{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
			return
		}
		doc.Summary = result
	}
}

// GenerateSummary runs the summary workflow for a document. Every exit path
// leaves the stored summary populated with either generated text or an
// explanatory status; the returned error is non-nil only when the document
// itself cannot be loaded or the result cannot be persisted.
func (s *Service) GenerateSummary(ctx context.Context, documentID string) (SummaryResult, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return SummaryResult{}, err
	}

	metrics.IncSummaryStarted()
	startedAt := time.Now().UTC()

	if !doc.HasFile() {
		result := SummaryResult{Kind: SummaryNoAttachment, GeneratedAt: &startedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			"No automatic summary could be generated: there is no attached file.")
	}

	text, decodeErr := s.decodeAttachment(ctx, doc)
	if decodeErr != nil {
		result := SummaryResult{Kind: SummaryDecodeError, Detail: decodeErr.Error(), GeneratedAt: &startedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			fmt.Sprintf("Error decoding the file for the summary: %v. Make sure it is a valid plain-text document.", decodeErr))
	}

	callCtx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	generated, err := s.Summarizer.Summarize(callCtx, text)
	completedAt := time.Now().UTC()

	switch {
	case errors.Is(err, summarizer.ErrNotConfigured):
		result := SummaryResult{Kind: SummaryConfigError, Detail: err.Error(), GeneratedAt: &completedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			fmt.Sprintf("Configuration error while generating the summary: %v", err))
	case err != nil:
		result := SummaryResult{Kind: SummaryProviderError, Detail: err.Error(), GeneratedAt: &completedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			fmt.Sprintf("Unexpected error while generating the AI summary: %v", err))
	case strings.TrimSpace(generated) == "":
		result := SummaryResult{Kind: SummaryEmpty, GeneratedAt: &completedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			"AI summary generation failed.")
	default:
		result := SummaryResult{Kind: SummarySuccess, Text: generated, GeneratedAt: &completedAt}
		return s.finishSummary(ctx, doc, result, startedAt,
			"An automatic AI summary has been generated for this document.")
	}
}

// finishSummary persists the result, emits the feed notification and
// records metrics. Persist first, notify second.
func (s *Service) finishSummary(ctx context.Context, doc Document, result SummaryResult, startedAt time.Time, feedBody string) (SummaryResult, error) {
	if err := s.Repo.SetSummary(ctx, doc.ID, result); err != nil {
		metrics.IncSummaryFailed()
		return SummaryResult{}, fmt.Errorf("store summary: %w", err)
	}

	s.Notifier.Post(ctx, doc.ID, "", feedBody, categorySummary)

	durationMs := float64(time.Since(startedAt).Microseconds()) / 1000.0
	metrics.ObserveSummaryDurationMs(durationMs)
	if result.Kind == SummarySuccess {
		metrics.IncSummaryCompleted()
	} else {
		metrics.IncSummaryFailed()
	}
	telemetry.Info("documents.summary", map[string]any{
		"document_id":  doc.ID,
		"summary_kind": string(result.Kind),
		"duration_ms":  durationMs,
	})
	return result, nil
}

func (s *Service) decodeAttachment(ctx context.Context, doc Document) (string, error) {
	body, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: open attachment: %v", extract.ErrUndecodable, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read attachment: %v", extract.ErrUndecodable, err)
	}
	return extract.DecodeText(ctx, raw, doc.MimeType, doc.FileName)
}

// ConfirmReading records that the acting user has read the document. The
// confirmation is written through the repository's privileged path before
// the feed notification is posted; a repeated confirmation fails with
// ErrAlreadyConfirmed and leaves the confirmed set unchanged.
func (s *Service) ConfirmReading(ctx context.Context, documentID, userID, displayName string) (Acknowledgment, error) {
	if documentID == "" || userID == "" {
		return Acknowledgment{}, fmt.Errorf("%w: document and user are required", ErrInvalidInput)
	}

	if err := s.Repo.AddConfirmedReader(ctx, documentID, userID, time.Now().UTC()); err != nil {
		return Acknowledgment{}, err
	}

	metrics.IncConfirmation()

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = userID
	}
	s.Notifier.Post(ctx, documentID, userID,
		fmt.Sprintf("User %s has confirmed reading this document.", name), categoryConfirm)

	return Acknowledgment{
		Title:    "Confirmation successful!",
		Message:  "You have successfully confirmed reading this document.",
		Severity: "success",
		Sticky:   false,
	}, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents newest-first, optionally only those with pending
// readers.
func (s *Service) List(ctx context.Context, onlyPending bool, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, onlyPending, limit, offset)
}

func normalizeReaders(readers []string) []string {
	seen := make(map[string]struct{}, len(readers))
	out := make([]string, 0, len(readers))
	for _, r := range readers {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
