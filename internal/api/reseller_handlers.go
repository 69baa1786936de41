package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/store"
)

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	NetplayUsername string `json:"netplay_username"`
	NetplayPassword string `json:"netplay_password"`
}

// RegisterReseller creates a reseller account that carries its own
// panel credentials.
func (s *Server) RegisterReseller(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username e password são obrigatórios.")
		return
	}

	id, err := s.Store.CreateReseller(req.Username, req.Password, req.NetplayUsername, req.NetplayPassword)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			writeError(w, http.StatusConflict, "Revendedor já cadastrado.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, models.Reseller{
		ID:              id,
		Username:        req.Username,
		NetplayUsername: req.NetplayUsername,
	})
}

// ResellerLogin verifies credentials and issues a session token.
func (s *Server) ResellerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	reseller, err := s.Store.AuthenticateReseller(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Usuário ou senha inválidos.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := s.Store.CreateSession(reseller.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"reseller": reseller,
	})
}

// ResellerLogout revokes the session named in the Authorization header.
func (s *Server) ResellerLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Sessão não informada.")
		return
	}
	if err := s.Store.RevokeSession(token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sessão encerrada."})
}

// currentReseller resolves the reseller session or writes a 401.
func (s *Server) currentReseller(w http.ResponseWriter, r *http.Request) (*models.Reseller, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Sessão não informada.")
		return nil, false
	}
	reseller, err := s.Store.SessionReseller(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Sessão inválida ou expirada.")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return reseller, true
}

type clientLinkRequest struct {
	ClientUsername string `json:"client_username"`
	ClientPassword string `json:"client_password"`
}

// CreateClientLink generates (or rotates) a shareable access link for
// one of the reseller's clients.
func (s *Server) CreateClientLink(w http.ResponseWriter, r *http.Request) {
	reseller, ok := s.currentReseller(w, r)
	if !ok {
		return
	}

	var req clientLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ClientUsername == "" || req.ClientPassword == "" {
		writeError(w, http.StatusBadRequest, "client_username e client_password são obrigatórios.")
		return
	}

	token, err := s.Store.CreateClientLink(reseller.ID, req.ClientUsername, req.ClientPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"client_username": req.ClientUsername,
		"link_token":      token,
	})
}

// ListClientLinks returns the reseller's generated links, newest first.
func (s *Server) ListClientLinks(w http.ResponseWriter, r *http.Request) {
	reseller, ok := s.currentReseller(w, r)
	if !ok {
		return
	}

	links, err := s.Store.ResellerClients(reseller.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"clients": links})
}

// ResolveClientLink is the public endpoint behind a shared link. It
// returns the client's access data and touches last_accessed.
func (s *Server) ResolveClientLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	access, err := s.Store.ClientByToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Link inválido ou removido.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, access)
}

// RecentActivity returns the latest batch migration summaries.
func (s *Server) RecentActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.RecentActivity(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}
