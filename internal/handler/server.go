// Package handler implements the HTTP handlers for the visa-day tracking API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, stay.go, status.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/middleware"
	"github.com/visaday/backend/internal/visa"
	"github.com/visaday/backend/spec"
)

// StayServicer defines the business operations the stay handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type StayServicer interface {
	Create(ctx context.Context, stay domain.Stay) (domain.Stay, error)
	GetByID(ctx context.Context, userID, stayID uuid.UUID) (domain.Stay, error)
	ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Stay, int64, error)
	Update(ctx context.Context, stay domain.Stay) (domain.Stay, error)
	Delete(ctx context.Context, userID, stayID uuid.UUID) error
}

// StatusServicer defines the visa status operations the status handlers
// depend on.
type StatusServicer interface {
	Report(ctx context.Context, userID uuid.UUID, passport string, ref time.Time) ([]visa.Status, error)
	Country(ctx context.Context, userID uuid.UUID, passport, countryCode string, ref time.Time) (visa.Status, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds the services every handler method operates on.
// Wire it in main.go via Routes.
type Server struct {
	stays  StayServicer
	status StatusServicer
	export ExportServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(stays StayServicer, status StatusServicer, export ExportServicer) *Server {
	return &Server{stays: stays, status: status, export: export}
}

// Routes returns the full API router. Everything except the health check
// and the OpenAPI document requires an owning-user identity, supplied by
// the upstream auth layer via the X-User-ID header.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(spec.OpenAPI)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUserID)

		r.Route("/stays", func(r chi.Router) {
			r.Post("/", s.CreateStay)
			r.Get("/", s.ListStays)
			r.Route("/{stayID}", func(r chi.Router) {
				r.Get("/", s.GetStay)
				r.Put("/", s.UpdateStay)
				r.Delete("/", s.DeleteStay)
			})
		})

		r.Get("/status", s.GetStatusReport)
		r.Get("/status/{countryCode}", s.GetCountryStatus)
		r.Get("/export", s.GetExport)
	})

	return r
}
