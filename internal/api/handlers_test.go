package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/netbridge/iptv-migrator/internal/catalog"
	"github.com/netbridge/iptv-migrator/internal/migration"
	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/store"
	"github.com/netbridge/iptv-migrator/internal/vendors"
)

// fakeNetplay serves the panel endpoints the handlers exercise.
func fakeNetplay(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "panel-token"})
	})
	mux.HandleFunc("GET /servers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []models.Server{
				{ID: "SRV-1", Name: "Alpha", Status: "active", Packages: []models.Plan{
					{ID: "P1", Name: "Plano Full"},
					{ID: "P7", Name: "Plano Antigo", Status: "disabled"},
				}},
				{ID: "SRV-2", Name: "Beta", Packages: []models.Plan{{ID: "P2", Name: "Plano Full"}}},
				{ID: "SRV-9", Name: "Gamma", Status: "disabled", Packages: []models.Plan{{ID: "P9", Name: "Plano Full"}}},
			},
		})
	})
	mux.HandleFunc("GET /customers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") == "ghost" {
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "42", "name": "Alice", "username": "alice",
					"server": map[string]interface{}{"name": "Alpha"},
					"package": map[string]interface{}{"name": "Plano Full"}},
			},
		})
	})
	mux.HandleFunc("PUT /customers/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	upstream := fakeNetplay(t)
	netplay := vendors.NewNetplay(upstream.URL, "panel-user", "panel-pass", 0)
	plans := catalog.New(netplay)

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := log.New(io.Discard)
	return &Server{
		Store:   db,
		Jobs:    models.NewJobStore(),
		Netplay: netplay,
		Catalog: plans,
		Orch: &migration.Orchestrator{
			Primary: netplay,
			Catalog: plans,
			Log:     logger,
		},
		Log: logger,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func TestPanelRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/servidores_e_planos"},
		{"GET", "/api/search_customer?username=alice"},
		{"PUT", "/api/migrar"},
		{"PUT", "/api/batch_migrar"},
	} {
		w := doJSON(t, router, tc.method, tc.path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s before login: got %d, want 401", tc.method, tc.path, w.Code)
		}
	}
}

func TestVendorLoginAndSearch(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	w := doJSON(t, router, "POST", "/api/login", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "GET", "/api/search_customer?account_number=alice", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("search: got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Customers []models.CustomerRecord `json:"clientes"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Customers) != 1 || resp.Customers[0].Username != "alice" {
		t.Errorf("customers = %+v, want alice", resp.Customers)
	}
	if resp.Customers[0].Server != "Alpha" {
		t.Errorf("server = %q, want Alpha", resp.Customers[0].Server)
	}

	w = doJSON(t, router, "GET", "/api/search_customer?account_number=ghost", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("empty search: got %d, want 404", w.Code)
	}
}

func TestServersAndPlansLoadsCatalog(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	doJSON(t, router, "POST", "/api/login", nil, "")
	w := doJSON(t, router, "GET", "/api/servidores_e_planos", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Servers []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"servers"`
		Packages []models.Plan `json:"packages"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Servers) != 2 {
		t.Fatalf("servers = %d, want 2 (active only): %+v", len(resp.Servers), resp.Servers)
	}
	for _, srv := range resp.Servers {
		if srv.ID == "SRV-9" {
			t.Error("disabled server leaked into listing")
		}
	}
	if len(resp.Packages) != 2 {
		t.Fatalf("packages = %d, want 2 (active only): %+v", len(resp.Packages), resp.Packages)
	}
	for _, pkg := range resp.Packages {
		if pkg.ID == "P7" || pkg.ID == "P9" {
			t.Errorf("inactive plan %s leaked into listing", pkg.ID)
		}
	}
	if resp.Packages[0].ServerID != "SRV-1" {
		t.Errorf("package server_id = %q, want SRV-1", resp.Packages[0].ServerID)
	}
	if !s.Catalog.Loaded() {
		t.Error("catalog not reloaded by servers listing")
	}
}

func TestMigrateOne(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	doJSON(t, router, "POST", "/api/login", nil, "")
	w := doJSON(t, router, "PUT", "/api/migrar", map[string]string{
		"customer_id": "42",
		"server_id":   "SRV-2",
		"package_id":  "P2",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "PUT", "/api/migrar", map[string]string{"server_id": "SRV-2"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing customer_id: got %d, want 400", w.Code)
	}
}

func TestBatchMigrate(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	doJSON(t, router, "POST", "/api/login", nil, "")
	w := doJSON(t, router, "PUT", "/api/batch_migrar", models.BatchMigration{
		Customers:  []models.Customer{{ID: "42", Username: "alice", PackageName: "Plano Full"}},
		ServerID:   "SRV-2",
		ServerName: "Beta",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string                    `json:"message"`
		JobID   string                    `json:"job_id"`
		Results []models.MigrationOutcome `json:"results"`
	}
	decodeBody(t, w, &resp)
	if resp.Message != "Todos os clientes selecionados foram migrados com sucesso!" {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Results) != 1 || resp.Results[0].MigrationStatus != models.StatusMigrated {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.Results[0].MaxplayerStatus != models.StatusNotRequested {
		t.Errorf("maxplayer status = %q, want %q", resp.Results[0].MaxplayerStatus, models.StatusNotRequested)
	}

	job := s.Jobs.Get(resp.JobID)
	if job == nil {
		t.Fatal("batch job not recorded")
	}
	if job.Status != "completed" {
		t.Errorf("job status = %q, want completed", job.Status)
	}

	w = doJSON(t, router, "GET", "/api/activity", nil, "")
	var act struct {
		Activity []models.ActivityEntry `json:"activity"`
	}
	decodeBody(t, w, &act)
	if len(act.Activity) != 1 || act.Activity[0].Succeeded != 1 || act.Activity[0].Total != 1 {
		t.Errorf("activity = %+v", act.Activity)
	}
}

func TestBatchMigrateValidation(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	doJSON(t, router, "POST", "/api/login", nil, "")
	w := doJSON(t, router, "PUT", "/api/batch_migrar", models.BatchMigration{ServerID: "SRV-2"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch: got %d, want 400", w.Code)
	}
}

func TestResellerFlow(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	w := doJSON(t, router, "POST", "/api/resellers", map[string]string{
		"username":         "rev1",
		"password":         "secret",
		"netplay_username": "rev1-panel",
		"netplay_password": "rev1-pass",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "POST", "/api/resellers", map[string]string{
		"username": "rev1", "password": "other",
	}, "")
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: got %d, want 409", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/resellers/login", map[string]string{
		"username": "rev1", "password": "secret",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)
	if login.Token == "" {
		t.Fatal("empty session token")
	}

	w = doJSON(t, router, "POST", "/api/resellers/clients", map[string]string{
		"client_username": "alice", "client_password": "alice-pw",
	}, login.Token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create link: got %d: %s", w.Code, w.Body.String())
	}
	var link struct {
		LinkToken string `json:"link_token"`
	}
	decodeBody(t, w, &link)

	w = doJSON(t, router, "GET", "/api/resellers/clients", nil, login.Token)
	var clients struct {
		Clients []models.ClientLink `json:"clients"`
	}
	decodeBody(t, w, &clients)
	if len(clients.Clients) != 1 || clients.Clients[0].ClientUsername != "alice" {
		t.Errorf("clients = %+v", clients.Clients)
	}

	// Public link resolves without a session.
	w = doJSON(t, router, "GET", "/api/client/"+link.LinkToken, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("resolve link: got %d: %s", w.Code, w.Body.String())
	}
	var access models.ClientAccess
	decodeBody(t, w, &access)
	if access.ClientUsername != "alice" || access.ResellerUsername != "rev1" {
		t.Errorf("access = %+v", access)
	}

	w = doJSON(t, router, "GET", "/api/client/bogus-token", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("bogus link: got %d, want 404", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/resellers/logout", nil, login.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, "GET", "/api/resellers/clients", nil, login.Token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: got %d, want 401", w.Code)
	}
}

func TestResellerLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	doJSON(t, router, "POST", "/api/resellers", map[string]string{
		"username": "rev2", "password": "right",
	}, "")
	w := doJSON(t, router, "POST", "/api/resellers/login", map[string]string{
		"username": "rev2", "password": "wrong",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", w.Code)
	}
}

func TestJobEndpoints(t *testing.T) {
	s := newTestServer(t)
	router := NewRouter(s)

	job := s.Jobs.Create("batch-migration", "Beta")
	job.AppendLog("first line")
	job.Complete()

	w := doJSON(t, router, "GET", "/api/jobs/"+job.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get job: got %d", w.Code)
	}
	var got models.Job
	decodeBody(t, w, &got)
	if got.ID != job.ID || got.Status != "completed" {
		t.Errorf("job = %+v", &got)
	}

	w = doJSON(t, router, "GET", "/api/jobs/nope", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job: got %d, want 404", w.Code)
	}

	w = doJSON(t, router, "GET", "/api/jobs", nil, "")
	var list []*models.Job
	decodeBody(t, w, &list)
	if len(list) != 1 {
		t.Errorf("jobs = %d, want 1", len(list))
	}
}
