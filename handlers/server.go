package handlers

import (
	"net/http"

	"github.com/cavemicro/isolate-api/assetstore"
	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIServer manages all API routes and handlers.
type APIServer struct {
	catalog  *services.Catalog
	isolates *services.IsolateService
	users    *services.UserService
	policy   *services.PolicyService
	assets   assetstore.Store
	auth     *middleware.AuthMiddleware
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(
	catalog *services.Catalog,
	isolates *services.IsolateService,
	users *services.UserService,
	policy *services.PolicyService,
	assets assetstore.Store,
	auth *middleware.AuthMiddleware,
) *APIServer {
	return &APIServer{
		catalog:  catalog,
		isolates: isolates,
		users:    users,
		policy:   policy,
		assets:   assets,
		auth:     auth,
	}
}

// SetupRoutes configures all API routes.
func (s *APIServer) SetupRoutes(mux *http.ServeMux) {
	// Reference catalog resources share one route shape; each is mounted
	// under its kind descriptor's resource segment.
	mountReference(mux, s, s.catalog.Organisms)
	mountReference(mux, s, s.catalog.Samples)
	mountReference(mux, s, s.catalog.Hosts)
	mountReference(mux, s, s.catalog.Methods)
	mountReference(mux, s, s.catalog.Locations)
	mountReference(mux, s, s.catalog.Caves)
	mountReference(mux, s, s.catalog.SamplingPoints)
	mountReference(mux, s, s.catalog.Institutions)
	mountReference(mux, s, s.catalog.Collections)

	// Isolates carry visibility tiers and the accession lifecycle.
	isolateHandler := middleware.PanicRecoveryMiddleware(s.auth.Optional(http.HandlerFunc(s.handleIsolates)))
	mux.Handle("/api/isolate", isolateHandler)
	mux.Handle("/api/isolate/", isolateHandler)

	// Image association.
	imageHandler := middleware.PanicRecoveryMiddleware(s.auth.Required(http.HandlerFunc(s.handleImages)))
	mux.Handle("/api/image/", imageHandler)

	// Accounts.
	mux.Handle("/register", middleware.PanicRecoveryMiddleware(s.auth.Optional(http.HandlerFunc(s.handleRegister))))
	mux.Handle("/login", middleware.PanicRecoveryMiddleware(http.HandlerFunc(s.handleLogin)))
	userHandler := middleware.PanicRecoveryMiddleware(s.auth.Required(http.HandlerFunc(s.handleUsers)))
	mux.Handle("/api/user", userHandler)
	mux.Handle("/api/user/", userHandler)

	// Metrics.
	mux.Handle("/metrics", promhttp.Handler())
}
