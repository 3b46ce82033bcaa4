package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"room-listing-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

// Handlers - все группы обработчиков сервиса
type Handlers struct {
	Ingest  *IngestHandlers
	Assets  *AssetHandlers
	Catalog *CatalogHandlers

	// AssetsDir/PublicPrefix: если заданы, картинки раздаются как статика
	AssetsDir    string
	PublicPrefix string
}

func NewRouter(handlers Handlers, allowedOrigins []string, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", handlers.Catalog.HandleList)
			r.Post("/", handlers.Catalog.HandleAdd)
			r.Get("/source", handlers.Catalog.HandleSource)
			r.Get("/id/{roomID}", handlers.Catalog.HandleGetByID)
			r.Post("/ingest", handlers.Ingest.HandleIngest)
			r.Post("/reload", handlers.Catalog.HandleReload)
			r.Post("/reset", handlers.Catalog.HandleReset)
			r.Post("/import", handlers.Catalog.HandleImport)
			r.Put("/{index}", handlers.Catalog.HandleUpdate)
			r.Delete("/{index}", handlers.Catalog.HandleDelete)
			r.Post("/{index}/images", handlers.Catalog.HandleAppendImages)
		})
		r.Route("/images", func(r chi.Router) {
			r.Post("/upload", handlers.Assets.HandleUpload)
			r.Post("/fetch", handlers.Assets.HandleFetch)
			r.Post("/cleanup", handlers.Assets.HandleCleanup)
		})
	})

	if handlers.AssetsDir != "" && handlers.PublicPrefix != "" {
		prefix := "/" + strings.Trim(handlers.PublicPrefix, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(handlers.AssetsDir))))
	}

	return r
}

func NewServer(listenPort string, handler http.Handler, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + listenPort,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}
}

// Start запускает HTTP-сервер
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
