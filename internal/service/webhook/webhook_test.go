package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"
)

func newSink(t *testing.T, url string) *Sink {
	t.Helper()
	cfg := &config.Config{WebhookURL: url, WebhookTimeout: 2 * time.Second, WebhookRetries: 0}
	return New(cfg, logger.NewQuiet(t.TempDir()))
}

func TestSink_Emit(t *testing.T) {
	var (
		mu       sync.Mutex
		received []dto.LineEvent
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var event dto.LineEvent
		if err := json.Unmarshal(body, &event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := newSink(t, server.URL)
	event := dto.LineEvent{SessionID: "s", Text: "「今日は」", Timestamp: time.Now(), Regions: 2}
	if err := s.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0].Text != "「今日は」" || received[0].Regions != 2 {
		t.Errorf("Unexpected delivery %+v", received)
	}
	if s.Delivered() != 1 {
		t.Errorf("Expected 1 delivered line, got %d", s.Delivered())
	}
}

func TestSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := newSink(t, server.URL)
	if err := s.Emit(context.Background(), dto.LineEvent{Text: "x"}); err == nil {
		t.Error("Expected an error for a 502 response")
	}
	if s.Delivered() != 0 {
		t.Errorf("Expected nothing delivered, got %d", s.Delivered())
	}
}
