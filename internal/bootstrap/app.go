package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "readconfirm-backend/internal/auth"
	"readconfirm-backend/internal/documents"
	"readconfirm-backend/internal/notify"
	"readconfirm-backend/internal/settings"
	"readconfirm-backend/internal/shared/config"
	"readconfirm-backend/internal/shared/server"
	"readconfirm-backend/internal/shared/storage/db"
	"readconfirm-backend/internal/shared/storage/object"
	localstore "readconfirm-backend/internal/shared/storage/object/local"
	s3store "readconfirm-backend/internal/shared/storage/object/s3"
	"readconfirm-backend/internal/summarizer"
	"readconfirm-backend/internal/summarizer/gemini"
	"readconfirm-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Settings         settings.Store
	DocumentsRepo    documents.DocumentsRepo
	NotifyRepo       notify.Repo
	UsersRepo        users.Repo
	DocumentsService *documents.Service
	NotifyService    *notify.Service
	UsersService     *users.Service
	DocumentsHandler *documents.Handler
	NotifyHandler    *notify.Handler
	UsersHandler     *users.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		NotifyHandler:   app.NotifyHandler,
		UserHandler:     app.UsersHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var notifyRepo notify.Repo
	var userRepo users.Repo
	var settingsStore settings.Store

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		notifyRepo = &notify.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		settingsStore = &settings.PGStore{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		notifyRepo = notify.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		settingsStore = settings.NewMemoryStore()
	}

	summarizerClient, err := buildSummarizer(app.Config, settingsStore)
	if err != nil {
		return err
	}

	notifySvc := notify.NewService(notifyRepo)
	docSvc := &documents.Service{
		Repo:            docRepo,
		Store:           app.Store,
		Summarizer:      summarizerClient,
		Notifier:        notifySvc,
		Activities:      notifySvc,
		StorageProvider: app.Config.ObjectStoreType,
	}
	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.Settings = settingsStore
	app.DocumentsRepo = docRepo
	app.NotifyRepo = notifyRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.NotifyService = notifySvc
	app.UsersService = userSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.NotifyHandler = notify.NewHandler(notifySvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}

func buildSummarizer(cfg config.Config, store settings.Store) (summarizer.Client, error) {
	switch cfg.SummarizerProvider {
	case "gemini":
		return gemini.NewClient(cfg.SummarizerModel, settingsKeySource{store: store})
	default:
		return summarizer.PlaceholderClient{}, nil
	}
}

// settingsKeySource resolves the summarizer API key from the settings store
// on every call, so a key configured at runtime takes effect without a
// restart.
type settingsKeySource struct {
	store settings.Store
}

func (s settingsKeySource) APIKey(ctx context.Context) (string, error) {
	value, err := s.store.GetParam(ctx, settings.KeySummarizerAPIKey)
	if err != nil {
		if err == settings.ErrNotFound {
			return "", summarizer.ErrNotConfigured
		}
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", summarizer.ErrNotConfigured
	}
	return value, nil
}
