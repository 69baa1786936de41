package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/netbridge/iptv-migrator/internal/vendors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeVendorError maps an upstream failure onto an HTTP status.
// Vendor responses keep their original status so the frontend can
// distinguish auth problems from validation problems.
func writeVendorError(w http.ResponseWriter, err error) {
	var verr *vendors.VendorError
	switch {
	case errors.As(err, &verr):
		writeError(w, verr.Status, verr.Message)
	case errors.Is(err, vendors.ErrAuth):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, vendors.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vendors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// requireVendorSession rejects panel operations before a vendor login
// has been performed.
func (s *Server) requireVendorSession(w http.ResponseWriter) bool {
	if s.Netplay.Session().Token() == "" {
		writeError(w, http.StatusUnauthorized, "Não autenticado. Faça login primeiro.")
		return false
	}
	return true
}

func fmtPartial(succeeded, total int) string {
	return fmt.Sprintf("Algumas migrações falharam. %d/%d clientes migrados com sucesso.", succeeded, total)
}

// bearerToken extracts the token from an Authorization header, if any.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// resellerIDFromRequest resolves the reseller behind a session token.
// Batch runs from the shared panel login are recorded with ID 0.
func resellerIDFromRequest(r *http.Request, s *Server) int64 {
	token := bearerToken(r)
	if token == "" || s.Store == nil {
		return 0
	}
	reseller, err := s.Store.SessionReseller(token)
	if err != nil {
		return 0
	}
	return reseller.ID
}
