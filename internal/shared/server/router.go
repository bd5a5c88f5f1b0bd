package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "readconfirm-backend/internal/auth"
	"readconfirm-backend/internal/documents"
	"readconfirm-backend/internal/notify"
	"readconfirm-backend/internal/shared/config"
	"readconfirm-backend/internal/shared/metrics"
	"readconfirm-backend/internal/shared/server/middleware"
	"readconfirm-backend/internal/shared/server/respond"
	"readconfirm-backend/internal/users"
)

// RouterDeps carries the handlers wired into the HTTP surface.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	NotifyHandler   *notify.Handler
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	api.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"SUMMARIZE": {Rate: 0.2, Burst: 3},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/summarize") {
					return "SUMMARIZE"
				}
				return ""
			},
		}),
	)

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.NotifyHandler != nil {
		deps.NotifyHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
