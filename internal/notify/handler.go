package notify

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"readconfirm-backend/internal/shared/server/middleware"
	"readconfirm-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches feed and activity routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/feed", h.feed)
	rg.GET("/activities", h.activities)
}

type notificationResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) feed(c *gin.Context) {
	documentID := c.Param("id")
	limit, offset := paging(c)

	feed, err := h.Svc.Feed(c.Request.Context(), documentID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list feed", nil)
		return
	}

	resp := make([]notificationResponse, 0, len(feed))
	for _, n := range feed {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			AuthorID:  n.AuthorID,
			Body:      n.Body,
			Category:  n.Category,
			CreatedAt: n.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

type activityResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	DueDate    string    `json:"dueDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) activities(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, offset := paging(c)

	items, err := h.Svc.ActivitiesFor(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list activities", nil)
		return
	}

	resp := make([]activityResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, activityResponse{
			ID:         a.ID,
			DocumentID: a.DocumentID,
			Subject:    a.Subject,
			Body:       a.Body,
			DueDate:    a.DueDate.Format("2006-01-02"),
			CreatedAt:  a.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func paging(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 200 {
		limit = 200
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
