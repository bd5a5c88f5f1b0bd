package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"readconfirm-backend/internal/shared/storage/object/local"
	"readconfirm-backend/internal/summarizer"
)

type staticSummarizer struct {
	resp string
	err  error

	mu    sync.Mutex
	calls int
}

func (s *staticSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	_ = ctx
	_ = text
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.resp, s.err
}

func (s *staticSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type capturedPost struct {
	DocumentID string
	AuthorID   string
	Body       string
	Category   string
}

type recordingNotifier struct {
	mu    sync.Mutex
	posts []capturedPost
}

func (n *recordingNotifier) Post(ctx context.Context, documentID, authorID, body, category string) {
	_ = ctx
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, capturedPost{DocumentID: documentID, AuthorID: authorID, Body: body, Category: category})
}

func (n *recordingNotifier) byCategory(category string) []capturedPost {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []capturedPost
	for _, p := range n.posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

type capturedActivity struct {
	DocumentID string
	AssigneeID string
	Subject    string
	DueDate    time.Time
}

type recordingScheduler struct {
	mu         sync.Mutex
	activities []capturedActivity
	err        error
}

func (s *recordingScheduler) ScheduleActivity(ctx context.Context, documentID, assigneeID, subject, body string, dueDate time.Time) error {
	_ = ctx
	_ = body
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.activities = append(s.activities, capturedActivity{DocumentID: documentID, AssigneeID: assigneeID, Subject: subject, DueDate: dueDate})
	return nil
}

func (s *recordingScheduler) all() []capturedActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedActivity(nil), s.activities...)
}

func setupService(t *testing.T, client summarizer.Client) (*Service, *MemoryRepo, *recordingNotifier, *recordingScheduler) {
	t.Helper()
	repo := NewMemoryRepo()
	notifier := &recordingNotifier{}
	scheduler := &recordingScheduler{}
	svc := &Service{
		Repo:            repo,
		Store:           local.New(t.TempDir()),
		Summarizer:      client,
		Notifier:        notifier,
		Activities:      scheduler,
		StorageProvider: "local",
	}
	return svc, repo, notifier, scheduler
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _, _, _ := setupService(t, &staticSummarizer{})

	_, err := svc.Create(context.Background(), "user-1", CreateInput{Title: "   "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateWithoutRequiredReadersSkipsWorkflow(t *testing.T) {
	client := &staticSummarizer{resp: "should not be called"}
	svc, repo, notifier, scheduler := setupService(t, client)

	doc, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:    "Policy",
		FileName: "policy.txt",
		File:     bytes.NewReader([]byte("policy body")),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if client.callCount() != 0 {
		t.Fatalf("summarizer called %d times for a document without required readers", client.callCount())
	}
	if got := scheduler.all(); len(got) != 0 {
		t.Fatalf("expected no activities, got %d", len(got))
	}
	if got := notifier.byCategory("summary"); len(got) != 0 {
		t.Fatalf("expected no summary notifications, got %d", len(got))
	}

	stored, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Summary.Kind != SummaryNone {
		t.Fatalf("expected no summary, got kind %q", stored.Summary.Kind)
	}
	if stored.HasPendingReaders {
		t.Fatalf("expected no pending readers")
	}
}

func TestCreateSchedulesActivityPerRequiredReader(t *testing.T) {
	svc, _, _, scheduler := setupService(t, &staticSummarizer{resp: "sum"})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Security Update",
		RequiredReaders: []string{"reader-1", "reader-2", "reader-1", " "},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	activities := scheduler.all()
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}
	for _, a := range activities {
		if a.DocumentID != doc.ID {
			t.Fatalf("activity for wrong document %q", a.DocumentID)
		}
		if !strings.Contains(a.Subject, "Security Update") {
			t.Fatalf("activity subject %q does not reference the title", a.Subject)
		}
	}
	if activities[0].AssigneeID == activities[1].AssigneeID {
		t.Fatalf("duplicate reader was not deduplicated")
	}
}

func TestCreateWithFileStoresSuccessfulSummary(t *testing.T) {
	client := &staticSummarizer{resp: "Concise summary text."}
	svc, repo, notifier, _ := setupService(t, client)

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Quarterly Report",
		RequiredReaders: []string{"reader-1"},
		FileName:        "report.txt",
		File:            bytes.NewReader([]byte("quarterly figures and commentary")),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if client.callCount() != 1 {
		t.Fatalf("expected one summarizer call, got %d", client.callCount())
	}

	stored, err := repo.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Summary.Kind != SummarySuccess {
		t.Fatalf("expected success summary, got %q (%q)", stored.Summary.Kind, stored.Summary.Detail)
	}
	if stored.Summary.Text != "Concise summary text." {
		t.Fatalf("unexpected summary text %q", stored.Summary.Text)
	}
	if stored.Summary.GeneratedAt == nil {
		t.Fatalf("expected generatedAt to be set")
	}
	if stored.Summary.DisplayText() != "Concise summary text." {
		t.Fatalf("unexpected display text %q", stored.Summary.DisplayText())
	}

	posts := notifier.byCategory("summary")
	if len(posts) != 1 {
		t.Fatalf("expected one summary notification, got %d", len(posts))
	}
}

func TestSummaryEmptyResponseStoredAsStatus(t *testing.T) {
	svc, repo, _, _ := setupService(t, &staticSummarizer{resp: "   "})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Empty",
		RequiredReaders: []string{"reader-1"},
		FileName:        "doc.txt",
		File:            bytes.NewReader([]byte("content")),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.Summary.Kind != SummaryEmpty {
		t.Fatalf("expected empty summary status, got %q", stored.Summary.Kind)
	}
	if !strings.Contains(stored.Summary.DisplayText(), "could not be generated") {
		t.Fatalf("unexpected display text %q", stored.Summary.DisplayText())
	}
}

func TestSummaryProviderErrorStoredAsStatus(t *testing.T) {
	svc, repo, _, _ := setupService(t, &staticSummarizer{err: errors.New("upstream 500")})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Broken",
		RequiredReaders: []string{"reader-1"},
		FileName:        "doc.txt",
		File:            bytes.NewReader([]byte("content")),
	})
	if err != nil {
		t.Fatalf("create must not fail on provider errors, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.Summary.Kind != SummaryProviderError {
		t.Fatalf("expected provider error status, got %q", stored.Summary.Kind)
	}
	if !strings.Contains(stored.Summary.Detail, "upstream 500") {
		t.Fatalf("expected error detail retained, got %q", stored.Summary.Detail)
	}
}

func TestSummaryConfigErrorStoredAsStatus(t *testing.T) {
	svc, repo, _, _ := setupService(t, &staticSummarizer{err: summarizer.ErrNotConfigured})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "No Key",
		RequiredReaders: []string{"reader-1"},
		FileName:        "doc.txt",
		File:            bytes.NewReader([]byte("content")),
	})
	if err != nil {
		t.Fatalf("create must not fail on config errors, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.Summary.Kind != SummaryConfigError {
		t.Fatalf("expected config error status, got %q", stored.Summary.Kind)
	}
}

func TestSummaryDecodeErrorStoredAsStatus(t *testing.T) {
	client := &staticSummarizer{resp: "never"}
	svc, repo, _, _ := setupService(t, client)

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Binary",
		RequiredReaders: []string{"reader-1"},
		FileName:        "blob.bin",
		File:            bytes.NewReader([]byte{0x00, 0x01, 0xff, 0xfe}),
	})
	if err != nil {
		t.Fatalf("create must not fail on decode errors, got %v", err)
	}

	if client.callCount() != 0 {
		t.Fatalf("summarizer must not be called for undecodable files")
	}
	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.Summary.Kind != SummaryDecodeError {
		t.Fatalf("expected decode error status, got %q", stored.Summary.Kind)
	}
}

func TestGenerateSummaryWithoutFile(t *testing.T) {
	svc, repo, notifier, _ := setupService(t, &staticSummarizer{})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{Title: "Text only"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.GenerateSummary(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("generate summary: %v", err)
	}
	if result.Kind != SummaryNoAttachment {
		t.Fatalf("expected no-attachment status, got %q", result.Kind)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if stored.Summary.Kind != SummaryNoAttachment {
		t.Fatalf("status not persisted, got %q", stored.Summary.Kind)
	}
	if len(notifier.byCategory("summary")) != 1 {
		t.Fatalf("expected a feed notification for the no-attachment status")
	}
}

func TestGenerateSummaryUnknownDocument(t *testing.T) {
	svc, _, _, _ := setupService(t, &staticSummarizer{})

	_, err := svc.GenerateSummary(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConfirmReadingUpdatesPendingSet(t *testing.T) {
	svc, repo, notifier, _ := setupService(t, &staticSummarizer{})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Handbook",
		RequiredReaders: []string{"reader-1", "reader-2"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ack, err := svc.ConfirmReading(context.Background(), doc.ID, "reader-1", "Reader One")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if ack.Title != "Confirmation successful!" || ack.Severity != "success" || ack.Sticky {
		t.Fatalf("unexpected acknowledgment %+v", ack)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if !stored.IsReadBy("reader-1") {
		t.Fatalf("reader-1 not in confirmed set")
	}
	pending := stored.PendingReaders()
	if len(pending) != 1 || pending[0] != "reader-2" {
		t.Fatalf("unexpected pending set %v", pending)
	}
	if !stored.HasPendingReaders {
		t.Fatalf("pending flag should remain set while reader-2 is outstanding")
	}

	posts := notifier.byCategory("confirmation")
	if len(posts) != 1 {
		t.Fatalf("expected one confirmation notification, got %d", len(posts))
	}
	if !strings.Contains(posts[0].Body, "Reader One") {
		t.Fatalf("notification body %q does not name the reader", posts[0].Body)
	}

	if _, err := svc.ConfirmReading(context.Background(), doc.ID, "reader-2", ""); err != nil {
		t.Fatalf("confirm second reader: %v", err)
	}
	stored, _ = repo.GetByID(context.Background(), doc.ID)
	if stored.HasPendingReaders {
		t.Fatalf("pending flag should clear once all required readers confirmed")
	}
	if len(stored.PendingReaders()) != 0 {
		t.Fatalf("pending set should be empty, got %v", stored.PendingReaders())
	}
}

func TestConfirmReadingTwiceFails(t *testing.T) {
	svc, repo, _, _ := setupService(t, &staticSummarizer{})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Handbook",
		RequiredReaders: []string{"reader-1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ConfirmReading(context.Background(), doc.ID, "reader-1", ""); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err = svc.ConfirmReading(context.Background(), doc.ID, "reader-1", "")
	if !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if len(stored.ConfirmedReaders) != 1 {
		t.Fatalf("confirmed set changed on repeated confirm: %v", stored.ConfirmedReaders)
	}
}

func TestConfirmReadingByNonRequiredReaderAllowed(t *testing.T) {
	svc, repo, _, _ := setupService(t, &staticSummarizer{})

	doc, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Handbook",
		RequiredReaders: []string{"reader-1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ConfirmReading(context.Background(), doc.ID, "bystander", ""); err != nil {
		t.Fatalf("confirm by non-required reader: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	if !stored.IsReadBy("bystander") {
		t.Fatalf("bystander confirmation not recorded")
	}
	if !stored.HasPendingReaders {
		t.Fatalf("pending flag must not clear: reader-1 has not confirmed")
	}
}

func TestConfirmReadingUnknownDocument(t *testing.T) {
	svc, _, _, _ := setupService(t, &staticSummarizer{})

	_, err := svc.ConfirmReading(context.Background(), "missing", "reader-1", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPendingFilter(t *testing.T) {
	svc, _, _, _ := setupService(t, &staticSummarizer{})

	withReaders, err := svc.Create(context.Background(), "author-1", CreateInput{
		Title:           "Pending doc",
		RequiredReaders: []string{"reader-1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "author-1", CreateInput{Title: "No readers"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(context.Background(), false, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(all))
	}

	pending, err := svc.List(context.Background(), true, 10, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != withReaders.ID {
		t.Fatalf("pending filter returned wrong documents: %+v", pending)
	}

	if _, err := svc.ConfirmReading(context.Background(), withReaders.ID, "reader-1", ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	pending, err = svc.List(context.Background(), true, 10, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("fully-confirmed document still listed as pending")
	}
}
