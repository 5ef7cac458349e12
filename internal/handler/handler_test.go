package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"textwatch/internal/auth"
	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
	"textwatch/internal/model"

	"github.com/xuri/excelize/v2"
)

// ========================================
// Test Setup Helpers
// ========================================

type memoryPassRepo struct {
	passes []model.Pass
}

func (m *memoryPassRepo) Insert(p *model.Pass) (int64, error) {
	p.ID = int64(len(m.passes) + 1)
	m.passes = append(m.passes, *p)
	return p.ID, nil
}

func (m *memoryPassRepo) GetByID(id int64) (*model.Pass, error) {
	for i := range m.passes {
		if m.passes[i].ID == id {
			p := m.passes[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memoryPassRepo) matching(filter *dto.PassFilter) []model.Pass {
	var out []model.Pass
	for _, p := range m.passes {
		if filter.SessionID != "" && p.SessionID != filter.SessionID {
			continue
		}
		if filter.Emitted != nil && p.Emitted != *filter.Emitted {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *memoryPassRepo) GetAll(filter *dto.PassFilter) ([]model.Pass, error) {
	out := m.matching(filter)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryPassRepo) GetTotalCount(filter *dto.PassFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *memoryPassRepo) GetSessions() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.passes {
		if !seen[p.SessionID] {
			seen[p.SessionID] = true
			out = append(out, p.SessionID)
		}
	}
	return out, nil
}

func (m *memoryPassRepo) DeleteBySession(sessionID string) error {
	kept := m.passes[:0]
	for _, p := range m.passes {
		if p.SessionID != sessionID {
			kept = append(kept, p)
		}
	}
	m.passes = kept
	return nil
}

type memoryRegionRepo struct {
	regions []model.Region
}

func (m *memoryRegionRepo) InsertBatch(regions []model.Region) error {
	m.regions = append(m.regions, regions...)
	return nil
}

func (m *memoryRegionRepo) GetByPassID(passID int64) ([]model.Region, error) {
	var out []model.Region
	for _, r := range m.regions {
		if r.PassID == passID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSession struct {
	paused bool
}

func (f *fakeSession) Status() dto.SessionStatus {
	return dto.SessionStatus{ID: "s1", Phase: "idle", Paused: f.paused}
}
func (f *fakeSession) Pause()  { f.paused = true }
func (f *fakeSession) Resume() { f.paused = false }

func seededRepo() *memoryPassRepo {
	repo := &memoryPassRepo{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.Insert(&model.Pass{SessionID: "a", Timestamp: now, Text: "一", Emitted: true})
	repo.Insert(&model.Pass{SessionID: "a", Timestamp: now, Text: "一", Emitted: false})
	repo.Insert(&model.Pass{SessionID: "b", Timestamp: now, Text: "二", Emitted: true})
	return repo
}

// ========================================
// Lines API Tests
// ========================================

func TestGetLinesHandler_Filters(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	h := GetLinesHandler(log, seededRepo())

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"all", "", 3},
		{"by session", "?session=a", 2},
		{"emitted only", "?emitted=true", 2},
		{"suppressed only", "?session=a&emitted=false", 1},
		{"garbage emitted ignored", "?emitted=maybe", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/api/lines"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rec.Code)
			}
			var page dto.LinePage
			if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(page.Lines) != tt.expected || page.Total != tt.expected {
				t.Errorf("Expected %d lines, got %d (total %d)", tt.expected, len(page.Lines), page.Total)
			}
		})
	}
}

func TestGetLinesHandler_Pagination(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	h := GetLinesHandler(log, seededRepo())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/lines?limit=2&page=2", nil))

	var page dto.LinePage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if page.Page != 2 || page.Limit != 2 || page.Total != 3 {
		t.Errorf("Unexpected page header %+v", page)
	}
	if len(page.Lines) != 1 || page.Lines[0].Text != "二" {
		t.Errorf("Expected the last line on page 2, got %+v", page.Lines)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/lines?page=9", nil))
	if !strings.Contains(rec.Body.String(), `"lines":[]`) {
		t.Errorf("Expected an empty list past the end, got %s", rec.Body.String())
	}
}

func TestGetLineRegionsHandler(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	regions := &memoryRegionRepo{}
	regions.InsertBatch([]model.Region{{PassID: 1, Text: "一", X2: 10, Y2: 10}})
	h := GetLineRegionsHandler(log, seededRepo(), regions)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"found", "/api/lines/regions?id=1", http.StatusOK},
		{"missing id", "/api/lines/regions", http.StatusBadRequest},
		{"unknown pass", "/api/lines/regions?id=99", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestSessionsHandlers(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	repo := seededRepo()

	rec := httptest.NewRecorder()
	GetSessionsHandler(log, repo)(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	var sessions []string
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %v", sessions)
	}

	del := DeleteSessionHandler(log, repo)

	rec = httptest.NewRecorder()
	del(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/delete?session=a", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	del(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/delete?session=a", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if n, _ := repo.GetTotalCount(&dto.PassFilter{}); n != 1 {
		t.Errorf("Expected 1 pass left, got %d", n)
	}
}

// ========================================
// Session Control Tests
// ========================================

func TestSessionControlHandlers(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	s := &fakeSession{}

	rec := httptest.NewRecorder()
	PauseSessionHandler(s, log)(rec, httptest.NewRequest(http.MethodGet, "/api/session/pause", nil))
	if rec.Code != http.StatusMethodNotAllowed || s.paused {
		t.Fatalf("Expected GET to be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	PauseSessionHandler(s, log)(rec, httptest.NewRequest(http.MethodPost, "/api/session/pause", nil))
	if !s.paused {
		t.Fatal("Expected session to be paused")
	}
	var status dto.SessionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil || !status.Paused {
		t.Errorf("Expected paused status in response, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ResumeSessionHandler(s, log)(rec, httptest.NewRequest(http.MethodPost, "/api/session/resume", nil))
	if s.paused {
		t.Error("Expected session to be resumed")
	}

	rec = httptest.NewRecorder()
	SessionStatusHandler(s, log)(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if !strings.Contains(rec.Body.String(), `"id":"s1"`) {
		t.Errorf("Unexpected status body %s", rec.Body.String())
	}
}

// ========================================
// Auth and Logs Tests
// ========================================

func TestLoginHandler(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	cfg := &config.Config{Password: "secret", AuthTTL: time.Hour}
	h := LoginHandler(cfg, log)

	post := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	if rec := post("wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", rec.Code)
	}

	rec := post("secret")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
		t.Fatalf("Expected auth cookie, got %v", cookies)
	}
	if err := auth.Verify(cfg.TokenSecret(), cookies[0].Value); err != nil {
		t.Errorf("Expected a valid signed token, got %v", err)
	}
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewQuiet(dir)
	log.Info("hello %s", "logs")

	rec := httptest.NewRecorder()
	ShowLogsHandler(dir, "info.log")(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hello logs") {
		t.Fatalf("Expected log contents, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ShowLogsHandler(dir, "missing.log")(rec, httptest.NewRequest(http.MethodGet, "/logs/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing file, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(log, "info.log")(rec, httptest.NewRequest(http.MethodPost, "/logs/info/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	data, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil {
		t.Fatalf("Failed to read info.log: %v", err)
	}
	if strings.Contains(string(data), "hello logs") {
		t.Errorf("Expected info.log to be cleared, got %q", data)
	}
}

// ========================================
// Export Tests
// ========================================

func TestExportLinesHandler(t *testing.T) {
	log := logger.NewQuiet(t.TempDir())
	repo := seededRepo()
	// Newest first, as the database returns them.
	repo.passes[0], repo.passes[2] = repo.passes[2], repo.passes[0]

	rec := httptest.NewRecorder()
	ExportLinesHandler(log, repo)(rec, httptest.NewRequest(http.MethodGet, "/api/lines/export?emitted=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "transcript.xlsx") {
		t.Errorf("Unexpected Content-Disposition %q", rec.Header().Get("Content-Disposition"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open exported workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(transcriptSheet)
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 emitted rows, got %d", len(rows))
	}
	if rows[0][2] != "Text" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	// Oldest first: "一" was recorded before "二".
	if rows[1][2] != "一" || rows[2][2] != "二" {
		t.Errorf("Expected chronological rows, got %q then %q", rows[1][2], rows[2][2])
	}
}
