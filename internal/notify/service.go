package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"readconfirm-backend/internal/shared/telemetry"
)

// Service appends notifications to document feeds and schedules activities.
// It satisfies the Notifier and ActivityScheduler interfaces the document
// workflows depend on.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Post appends a notification to the document's feed. Failures are logged,
// never returned: posting is fire-and-forget from the workflows' perspective.
func (s *Service) Post(ctx context.Context, documentID, authorID, body, category string) {
	n := Notification{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		AuthorID:   authorID,
		Body:       body,
		Category:   category,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.CreateNotification(ctx, n); err != nil {
		telemetry.Warn("notify.post_failed", map[string]any{
			"document_id": documentID,
			"category":    category,
			"error":       err.Error(),
		})
	}
}

// ScheduleActivity records a to-do reminder for the assignee.
func (s *Service) ScheduleActivity(ctx context.Context, documentID, assigneeID, subject, body string, dueDate time.Time) error {
	a := Activity{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		AssigneeID: assigneeID,
		Subject:    subject,
		Body:       body,
		DueDate:    dueDate,
		CreatedAt:  time.Now().UTC(),
	}
	return s.Repo.CreateActivity(ctx, a)
}

// Feed returns the document's notification feed, newest first.
func (s *Service) Feed(ctx context.Context, documentID string, limit, offset int) ([]Notification, error) {
	return s.Repo.ListByDocument(ctx, documentID, limit, offset)
}

// ActivitiesFor returns the user's scheduled activities.
func (s *Service) ActivitiesFor(ctx context.Context, assigneeID string, limit, offset int) ([]Activity, error) {
	return s.Repo.ListByAssignee(ctx, assigneeID, limit, offset)
}
