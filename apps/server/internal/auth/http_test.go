package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"  Bearer  x ": "x",
		"Basic abc":    "",
		"":             "",
	}
	for raw, want := range cases {
		if got := BearerToken(raw); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestHTTPRegisterMeLogout(t *testing.T) {
	m := NewManager()
	var registered uint64
	mux := http.NewServeMux()
	NewHTTPHandler(m, func(id uint64) { registered = id }).RegisterRoutes(mux)

	body, _ := json.Marshal(credentialsRequest{Username: "dora_01", Password: "secret12"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}
	var auth authResponse
	if err := json.NewDecoder(rec.Body).Decode(&auth); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if auth.SessionToken == "" || registered != auth.UserID {
		t.Fatalf("unexpected register response %+v (hook saw %d)", auth, registered)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}

	// query-string tokens are accepted for WebSocket upgrades
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me?token="+auth.SessionToken, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+auth.SessionToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.SessionToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", rec.Code)
	}
}
