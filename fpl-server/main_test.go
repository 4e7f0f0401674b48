package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/featurestore"
	"fpl-points-predictor/internal/gwdata"
	"fpl-points-predictor/internal/logger"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// tmpCfg returns a server config rooted in a temp dir. Series come from a
// static 2023-24 source: Saka plays gw1 and gw3, Haaland only gw2.
func tmpCfg(t *testing.T) (string, ServerConfig) {
	t.Helper()
	dir := t.TempDir()
	src := gwdata.StaticSource{"2023-24": {
		1: {{Name: "Bukayo Saka", Minutes: 90, TotalPoints: 8, GoalsScored: 1}},
		2: {{Name: "Erling Haaland", Minutes: 90, TotalPoints: 13, GoalsScored: 2}},
		3: {{Name: "Bukayo Saka", Minutes: 90, TotalPoints: 2}},
	}}
	return dir, ServerConfig{
		RawRoot:       filepath.Join(dir, "raw"),
		DerivedRoot:   filepath.Join(dir, "derived"),
		CurrentSeason: "2023-24",
		Series: &featurestore.Cached{
			Store:   featurestore.NewMemory(),
			Builder: features.NewBuilder(src, logger.Discard()),
			Logger:  logger.Discard(),
		},
		Log: logger.Discard(),
	}
}

// ---------------------------------------------------------------------------
// HTTP routing + auth
// ---------------------------------------------------------------------------

func TestHandler_Auth(t *testing.T) {
	_, cfg := tmpCfg(t)
	server, registry := newServer(cfg)
	h := newHandler(server, registry, "secret", "X-API-Key", "/mcp")

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status=%d want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_NoKeyIsOpen(t *testing.T) {
	_, cfg := tmpCfg(t)
	server, registry := newServer(cfg)
	h := newHandler(server, registry, "", "X-API-Key", "/mcp")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status=%d want 200", rec.Code)
	}
}

func TestHandler_Tools(t *testing.T) {
	_, cfg := tmpCfg(t)
	server, registry := newServer(cfg)
	h := newHandler(server, registry, "", "X-API-Key", "/mcp")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))
	var body struct {
		Tools []toolInfo `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"player_series", "season_summary", "top_predictions", "player_lookup"}
	if len(body.Tools) != len(want) {
		t.Fatalf("tools=%d want %d", len(body.Tools), len(want))
	}
	for i, name := range want {
		if body.Tools[i].Name != name {
			t.Errorf("tool[%d]=%q want %q", i, body.Tools[i].Name, name)
		}
		if body.Tools[i].Description == "" {
			t.Errorf("tool %q has no description", name)
		}
	}
}
