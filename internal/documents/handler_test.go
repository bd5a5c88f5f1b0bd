package documents_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"readconfirm-backend/internal/bootstrap"
	"readconfirm-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("SUMMARIZER_API_KEY", "")

	cfg := config.Config{
		Port:               "0",
		CORSAllowOrigin:    []string{"http://localhost:5173"},
		LocalStoreDir:      t.TempDir(),
		Env:                "dev",
		ObjectStoreType:    "local",
		SummarizerProvider: "gemini",
		SummarizerModel:    "gemini-1.5-flash",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

type documentPayload struct {
	DocumentID        string   `json:"documentId"`
	Title             string   `json:"title"`
	FileName          string   `json:"fileName"`
	RequiredReaders   []string `json:"requiredReaders"`
	ConfirmedReaders  []string `json:"confirmedReaders"`
	PendingReaders    []string `json:"pendingReaders"`
	HasPendingReaders bool     `json:"hasPendingReaders"`
	IsReadByMe        bool     `json:"isReadByMe"`
	Summary           *struct {
		Status string `json:"status"`
		Text   string `json:"text"`
	} `json:"summary"`
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "test-guest")
}

func createDocument(t *testing.T, router *gin.Engine, title string, readers []string, fileName, fileBody string) documentPayload {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("title", title); err != nil {
		t.Fatalf("write title: %v", err)
	}
	for _, r := range readers {
		if err := writer.WriteField("requiredReaders", r); err != nil {
			t.Fatalf("write reader: %v", err)
		}
	}
	if fileName != "" {
		fw, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(fileBody)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created documentPayload
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatalf("expected documentId, got empty")
	}
	return created
}

func TestDocumentCreateAndFetch(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	created := createDocument(t, router, "Security Policy", []string{"reader-1,reader-2"}, "policy.txt", "please read carefully")

	if len(created.PendingReaders) != 2 {
		t.Fatalf("expected 2 pending readers, got %v", created.PendingReaders)
	}
	if !created.HasPendingReaders {
		t.Fatalf("expected hasPendingReaders true")
	}
	// No API key configured: summary workflow still ran and stored a status.
	if created.Summary == nil || created.Summary.Status != "config_error" {
		t.Fatalf("expected config_error summary, got %+v", created.Summary)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var fetched documentPayload
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.Title != "Security Policy" || fetched.FileName != "policy.txt" {
		t.Fatalf("unexpected document %+v", fetched)
	}
	if fetched.IsReadByMe {
		t.Fatalf("guest has not confirmed yet")
	}
}

func TestDocumentCreateRequiresTitle(t *testing.T) {
	app := buildTestApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("description", "no title here"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestConfirmReadingEndpoint(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	created := createDocument(t, router, "Handbook", []string{"guest:test-guest"}, "", "")

	confirm := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+created.DocumentID+"/confirm", nil)
		addGuestHeader(req)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	resp := confirm()
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var ack struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Type    string `json:"type"`
		Sticky  bool   `json:"sticky"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Title != "Confirmation successful!" || ack.Type != "success" || ack.Sticky {
		t.Fatalf("unexpected ack %+v", ack)
	}

	// Second confirm by the same user conflicts.
	resp = confirm()
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	// The document now shows the confirmation for this viewer.
	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	addGuestHeader(reqGet)
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	var fetched documentPayload
	if err := json.NewDecoder(respGet.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if !fetched.IsReadByMe || fetched.HasPendingReaders {
		t.Fatalf("confirmation not reflected: %+v", fetched)
	}

	// And the feed carries the confirmation notice.
	reqFeed := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID+"/feed", nil)
	addGuestHeader(reqFeed)
	respFeed := httptest.NewRecorder()
	router.ServeHTTP(respFeed, reqFeed)
	if respFeed.Code != http.StatusOK {
		t.Fatalf("expected status 200 from feed, got %d", respFeed.Code)
	}
	var feed []struct {
		Category string `json:"category"`
		Body     string `json:"body"`
	}
	if err := json.NewDecoder(respFeed.Body).Decode(&feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	var confirmations int
	for _, entry := range feed {
		if entry.Category == "confirmation" {
			confirmations++
		}
	}
	if confirmations != 1 {
		t.Fatalf("expected exactly one confirmation feed entry, got %d", confirmations)
	}
}

func TestConfirmUnknownDocument(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/nope/confirm", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestDocumentListPendingFilter(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	pendingDoc := createDocument(t, router, "Needs reading", []string{"reader-1"}, "", "")
	createDocument(t, router, "FYI only", nil, "", "")

	list := func(query string) []documentPayload {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents"+query, nil)
		addGuestHeader(req)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var docs []documentPayload
		if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		return docs
	}

	if docs := list(""); len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	docs := list("?pending=true")
	if len(docs) != 1 || docs[0].DocumentID != pendingDoc.DocumentID {
		t.Fatalf("pending filter returned %+v", docs)
	}
}

func TestActivitiesListedForAssignee(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	created := createDocument(t, router, "Team Charter", []string{"guest:test-guest"}, "", "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var activities []struct {
		DocumentID string `json:"documentId"`
		Subject    string `json:"subject"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		t.Fatalf("decode activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities))
	}
	if activities[0].DocumentID != created.DocumentID {
		t.Fatalf("activity for wrong document %q", activities[0].DocumentID)
	}
	want := fmt.Sprintf("New internal document: %s", "Team Charter")
	if activities[0].Subject != want {
		t.Fatalf("unexpected activity subject %q", activities[0].Subject)
	}
}
