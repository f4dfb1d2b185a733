package server

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/flarelog/backend/config"
	"github.com/flarelog/backend/internal/api"
	"github.com/flarelog/backend/internal/database"
	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
}

// New wires the full service graph and returns a ready-to-start server.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.NewGorm(cfg)
	if err != nil {
		return nil, err
	}

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.RunMigrations(db, migrationsDir); err != nil {
		return nil, err
	}

	// Optional collaborators degrade to nil and are skipped at the
	// point of use
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Redis unavailable, drafts and rate limiting disabled: %v", err)
		redisClient = nil
	}

	s3Config, err := config.NewS3Config(context.Background())
	if err != nil {
		log.Printf("Warning: S3 unavailable, report sharing disabled: %v", err)
		s3Config = nil
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	emailService := service.NewEmailService()
	engagementService := service.NewEngagementService(db)
	entryService := service.NewEntryService(db, engagementService, service.NewWeatherService(), service.NewWearableService(db))
	reportService := service.NewReportService(db, emailService)

	var classifierService service.IClassifierService
	if redisClient != nil {
		if svc, err := service.NewClassifierService(redisClient); err != nil {
			log.Printf("Warning: classifier unavailable: %v", err)
		} else {
			classifierService = svc
		}
	}

	var exportService service.IExportService
	if s3Config != nil {
		exportService = service.NewExportService(s3Config)
	}

	router := gin.Default()
	router.Use(middleware.CORS())

	api.RegisterRoutes(router, api.Deps{
		DB:         db,
		Redis:      redisClient,
		Auth:       authService,
		Email:      emailService,
		Entries:    entryService,
		Engagement: engagementService,
		Reports:    reportService,
		Classifier: classifierService,
		Export:     exportService,
		S3:         s3Config,
	})

	return &Server{
		cfg:    cfg,
		router: router,
		db:     db,
	}, nil
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
