package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/vendors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VendorLogin authenticates against the Netplay panel. Credentials in
// the request body override the configured ones so a reseller can log
// in with their own account.
func (s *Server) VendorLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var (
		token string
		err   error
	)
	if req.Username != "" || req.Password != "" {
		token, err = s.Netplay.LoginAs(r.Context(), req.Username, req.Password)
	} else {
		token, err = s.Netplay.Login(r.Context())
	}
	if err != nil {
		writeVendorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login bem-sucedido!",
		"token":   token,
	})
}

// inactive reports whether a vendor status marks the entry as not
// selectable. Entries without a status are kept; not every panel
// response carries one.
func inactive(status string) bool {
	return status != "" && status != "active"
}

// ServersAndPlans returns the active destination servers plus a
// flattened, de-duplicated plan list, refreshing the plan catalog as a
// side effect. Duplicate plan IDs across servers keep their first
// occurrence, same as the catalog.
func (s *Server) ServersAndPlans(w http.ResponseWriter, r *http.Request) {
	if !s.requireVendorSession(w) {
		return
	}

	servers, err := s.Netplay.ListServers(r.Context())
	if err != nil {
		writeVendorError(w, err)
		return
	}

	if err := s.Catalog.Reload(r.Context()); err != nil {
		s.Log.Warn("plan catalog reload failed", "err", err)
	}

	type serverSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	summaries := make([]serverSummary, 0, len(servers))
	var packages []models.Plan
	seen := map[string]bool{}
	for _, srv := range servers {
		if inactive(srv.Status) {
			continue
		}
		summaries = append(summaries, serverSummary{ID: srv.ID, Name: srv.Name})
		for _, pkg := range srv.Packages {
			if seen[pkg.ID] || inactive(pkg.Status) {
				continue
			}
			seen[pkg.ID] = true
			if pkg.ServerID == "" {
				pkg.ServerID = srv.ID
			}
			if pkg.ServerName == "" {
				pkg.ServerName = srv.Name
			}
			packages = append(packages, pkg)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers":  summaries,
		"packages": packages,
	})
}

// SearchCustomer looks up customers on the Netplay panel by username
// and/or current server.
func (s *Server) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	if !s.requireVendorSession(w) {
		return
	}

	// The frontend historically sends the username as account_number.
	username := r.URL.Query().Get("account_number")
	if username == "" {
		username = r.URL.Query().Get("username")
	}
	serverID := r.URL.Query().Get("server_id")

	customers, err := s.Netplay.SearchCustomers(r.Context(), username, serverID)
	if err != nil {
		if errors.Is(err, vendors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Nenhum cliente encontrado.")
			return
		}
		writeVendorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"clientes": customers})
}

type migrateRequest struct {
	CustomerID string `json:"customer_id"`
	ServerID   string `json:"server_id"`
	PackageID  string `json:"package_id"`
}

// MigrateOne moves a single customer to a new server and plan on the
// Netplay panel only.
func (s *Server) MigrateOne(w http.ResponseWriter, r *http.Request) {
	if !s.requireVendorSession(w) {
		return
	}

	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id é obrigatório.")
		return
	}

	if err := s.Netplay.MigrateCustomer(r.Context(), req.CustomerID, req.ServerID, req.PackageID); err != nil {
		writeVendorError(w, err)
		return
	}

	job := s.Jobs.Create("single-migration", req.CustomerID)
	job.AppendLog("customer " + req.CustomerID + " migrated to server " + req.ServerID)
	job.Complete()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Migração realizada com sucesso!"})
}

// BatchMigrate runs a concurrent batch migration and reports the
// per-customer outcomes in input order.
func (s *Server) BatchMigrate(w http.ResponseWriter, r *http.Request) {
	if !s.requireVendorSession(w) {
		return
	}

	var req models.BatchMigration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	job := s.Jobs.Create("batch-migration", req.ServerName)
	outcomes, err := s.Orch.RunBatch(r.Context(), req, job.AppendLog)
	if err != nil {
		job.Fail(err.Error())
		writeVendorError(w, err)
		return
	}
	job.Complete()

	succeeded := 0
	for _, o := range outcomes {
		if o.MigrationStatus == models.StatusMigrated {
			succeeded++
		}
	}

	if s.Store != nil {
		if err := s.Store.RecordBatch(resellerIDFromRequest(r, s), len(outcomes), succeeded); err != nil {
			s.Log.Warn("recording batch activity failed", "err", err)
		}
	}

	msg := "Todos os clientes selecionados foram migrados com sucesso!"
	status := http.StatusOK
	switch {
	case succeeded == 0:
		msg = "Todas as migrações falharam."
		status = http.StatusInternalServerError
	case succeeded < len(outcomes):
		msg = fmtPartial(succeeded, len(outcomes))
	}

	writeJSON(w, status, map[string]interface{}{
		"message": msg,
		"job_id":  job.ID,
		"results": outcomes,
	})
}
