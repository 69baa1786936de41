package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/netbridge/iptv-migrator/internal/catalog"
	"github.com/netbridge/iptv-migrator/internal/migration"
	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/store"
	"github.com/netbridge/iptv-migrator/internal/vendors"
)

// Server holds shared state for all API handlers.
type Server struct {
	Store     *store.Store
	Jobs      *models.JobStore
	Netplay   *vendors.Netplay
	Maxplayer *vendors.Maxplayer
	Catalog   *catalog.Catalog
	Orch      *migration.Orchestrator
	Log       *log.Logger
}

// NewRouter builds the chi router with all API routes. Panel route
// names stay compatible with the historical frontend.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Vendor panel
		r.Post("/login", s.VendorLogin)
		r.Get("/servidores_e_planos", s.ServersAndPlans)
		r.Get("/search_customer", s.SearchCustomer)
		r.Put("/migrar", s.MigrateOne)
		r.Put("/batch_migrar", s.BatchMigrate)

		// Reseller accounts and client links
		r.Post("/resellers", s.RegisterReseller)
		r.Post("/resellers/login", s.ResellerLogin)
		r.Post("/resellers/logout", s.ResellerLogout)
		r.Get("/resellers/clients", s.ListClientLinks)
		r.Post("/resellers/clients", s.CreateClientLink)
		r.Get("/client/{token}", s.ResolveClientLink)

		// Jobs and audit trail
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Get("/activity", s.RecentActivity)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
