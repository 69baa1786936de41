package vendors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Get_BearerHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	session := &Session{}
	session.Set("tok-1")
	c := NewClient(ts.URL, session, nil, 100)

	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.Get(context.Background(), "/ping", nil, &resp); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !resp.OK {
		t.Error("response not decoded")
	}
}

func TestClient_VendorError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"plano inválido"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, &Session{}, nil, 100)
	err := c.Put(context.Background(), "/customers/1/server-migration", map[string]string{"server_id": "S1"}, nil)
	if err == nil {
		t.Fatal("expected error for 422")
	}
	verr, ok := err.(*VendorError)
	if !ok {
		t.Fatalf("error type = %T, want *VendorError", err)
	}
	if verr.Status != 422 || verr.Message != "plano inválido" {
		t.Errorf("VendorError = %+v, want status 422 / plano inválido", verr)
	}
}

func TestClient_ReauthOn401(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expirado"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	session := &Session{}
	session.Set("stale")
	c := NewClient(ts.URL, session, nil, 100)
	relogins := 0
	c.SetReauth(func(ctx context.Context) (string, error) {
		relogins++
		return "fresh", nil
	})

	if err := c.Get(context.Background(), "/servers", nil, nil); err != nil {
		t.Fatalf("Get after reauth returned error: %v", err)
	}
	if relogins != 1 {
		t.Errorf("reauth called %d times, want 1", relogins)
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2 (401 then retry)", calls)
	}
	if session.Token() != "fresh" {
		t.Errorf("session token = %q, want fresh", session.Token())
	}
}

func TestClient_ReauthOnlyOnce(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	session := &Session{}
	session.Set("stale")
	c := NewClient(ts.URL, session, nil, 100)
	relogins := 0
	c.SetReauth(func(ctx context.Context) (string, error) {
		relogins++
		return "still-bad", nil
	})

	err := c.Get(context.Background(), "/servers", nil, nil)
	if err == nil {
		t.Fatal("expected error when retry also gets 401")
	}
	if relogins != 1 {
		t.Errorf("reauth called %d times, want 1", relogins)
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect string
		ok     bool
	}{
		{"token field", `{"token":"abc"}`, "abc", true},
		{"access_token field", `{"access_token":"def"}`, "def", true},
		{"nested data.token", `{"data":{"token":"ghi"}}`, "ghi", true},
		{"token wins over access_token", `{"token":"a","access_token":"b"}`, "a", true},
		{"access_token wins over nested", `{"access_token":"b","data":{"token":"c"}}`, "b", true},
		{"no token", `{"message":"ok"}`, "", false},
		{"not json", `oops`, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseToken([]byte(tc.body))
			if got != tc.expect || ok != tc.ok {
				t.Errorf("parseToken(%s) = (%q, %v), want (%q, %v)", tc.body, got, ok, tc.expect, tc.ok)
			}
		})
	}
}

func TestMessageFromBody(t *testing.T) {
	if got := messageFromBody([]byte(`{"message":"m1"}`)); got != "m1" {
		t.Errorf("message probe = %q, want m1", got)
	}
	if got := messageFromBody([]byte(`{"detail":"d1"}`)); got != "d1" {
		t.Errorf("detail probe = %q, want d1", got)
	}
	if got := messageFromBody([]byte(`plain text`)); got != "plain text" {
		t.Errorf("raw fallback = %q, want plain text", got)
	}
}

func TestSession(t *testing.T) {
	s := &Session{}
	if s.Token() != "" {
		t.Error("fresh session should have no token")
	}
	s.Set("t1")
	if s.Token() != "t1" {
		t.Errorf("Token = %q, want t1", s.Token())
	}
	if s.Age() < 0 {
		t.Error("Age should be non-negative")
	}
	s.Clear()
	if s.Token() != "" || s.Age() != 0 {
		t.Error("Clear should reset token and age")
	}
}
