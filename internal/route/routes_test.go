package route

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"textwatch/internal/auth"
	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/metrics"
	"textwatch/internal/repository/sqlite"
	"textwatch/internal/service/websocket"
)

type stubSession struct{}

func (stubSession) Status() dto.SessionStatus { return dto.SessionStatus{ID: "live"} }
func (stubSession) Pause()                    {}
func (stubSession) Resume()                   {}

var testConfig = &config.Config{Password: "pw", AuthTTL: time.Hour, LoginRate: 1, LoginBurst: 3}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.New(dir + "/test.db")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewQuiet(dir)
	return SetupRoutes(Deps{
		Config:     withLogDir(dir),
		Logger:     log,
		Metrics:    metrics.New(),
		Hub:        websocket.NewHubService(log),
		Session:    stubSession{},
		PassRepo:   sqlite.NewPassRepository(db),
		RegionRepo: sqlite.NewRegionRepository(db),
	})
}

func withLogDir(dir string) *config.Config {
	cfg := *testConfig
	cfg.LogDirectory = dir
	return &cfg
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t)
	token, _, err := auth.Sign(testConfig.TokenSecret(), time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		auth     bool
		code     int
		contains string
	}{
		{"session status", http.MethodGet, "/api/session", true, http.StatusOK, `"id":"live"`},
		{"empty history", http.MethodGet, "/api/lines", true, http.StatusOK, `"total":0`},
		{"sessions list", http.MethodGet, "/api/sessions", true, http.StatusOK, "[]"},
		{"api needs auth", http.MethodGet, "/api/session", false, http.StatusUnauthorized, ""},
		{"metrics", http.MethodGet, "/metrics", false, http.StatusOK, "textwatch_"},
		{"unknown page", http.MethodGet, "/nope", true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("Expected %d, got %d", tt.code, rec.Code)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("Expected body to contain %q, got %s", tt.contains, rec.Body.String())
			}
		})
	}
}
