package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.SampleInterval != 80*time.Millisecond {
		t.Errorf("Expected 80ms sample interval, got %v", cfg.SampleInterval)
	}
	if cfg.Downscale != 4 || cfg.PixelThreshold != 20 {
		t.Errorf("Unexpected differ defaults: downscale=%d threshold=%d", cfg.Downscale, cfg.PixelThreshold)
	}
	if cfg.ChangeThreshold != 0.015 || cfg.LowChangeThreshold != 0.01 || cfg.StabilityFrames != 3 {
		t.Errorf("Unexpected state machine defaults: %v %v %d", cfg.ChangeThreshold, cfg.LowChangeThreshold, cfg.StabilityFrames)
	}
	if cfg.DetectConfidence != 0.3 || cfg.RecognizeConfidence != 0.1 || cfg.XOverlap != 0.3 {
		t.Errorf("Unexpected reducer defaults: %v %v %v", cfg.DetectConfidence, cfg.RecognizeConfidence, cfg.XOverlap)
	}
	if cfg.HistoryCapacity != 10 {
		t.Errorf("Expected history capacity 10, got %d", cfg.HistoryCapacity)
	}
	if cfg.DedupMode != "last" {
		t.Errorf("Expected dedup mode 'last', got %s", cfg.DedupMode)
	}
}

func TestLoadFile_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "STABILITY_FRAMES=5\nSAMPLE_INTERVAL=120ms\nRECOGNIZER=tesseract\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("STABILITY_FRAMES")
		os.Unsetenv("SAMPLE_INTERVAL")
		os.Unsetenv("RECOGNIZER")
	})

	cfg, err := LoadFile(envFile)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.StabilityFrames != 5 {
		t.Errorf("Expected 5 stability frames, got %d", cfg.StabilityFrames)
	}
	if cfg.SampleInterval != 120*time.Millisecond {
		t.Errorf("Expected 120ms, got %v", cfg.SampleInterval)
	}
	if cfg.Recognizer != "tesseract" {
		t.Errorf("Expected tesseract recognizer, got %s", cfg.Recognizer)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown recognizer", "RECOGNIZER", "paddle"},
		{"unknown dedup mode", "DEDUP_MODE", "all"},
		{"change threshold above one", "CHANGE_THRESHOLD", "1.5"},
		{"low above change", "LOW_CHANGE_THRESHOLD", "0.02"},
		{"zero stability frames", "STABILITY_FRAMES", "0"},
		{"malformed webhook url", "WEBHOOK_URL", "not a url"},
		{"zero login burst", "LOGIN_BURST", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("Expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestGetEnvAsFloat_InvalidFallsBack(t *testing.T) {
	t.Setenv("TEXTWATCH_TEST_FLOAT", "abc")
	if got := getEnvAsFloat("TEXTWATCH_TEST_FLOAT", 0.5); got != 0.5 {
		t.Errorf("Expected fallback 0.5, got %v", got)
	}
}

func TestLoadFile_AuthSettings(t *testing.T) {
	t.Setenv("PASSWORD", "pw")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("Expected COOKIE_SECURE to parse as true")
	}
	if string(cfg.TokenSecret()) != "pw" {
		t.Errorf("Expected token secret to fall back to the password, got %q", cfg.TokenSecret())
	}

	cfg.AuthSecret = "s3cret"
	if string(cfg.TokenSecret()) != "s3cret" {
		t.Errorf("Expected explicit secret, got %q", cfg.TokenSecret())
	}
}
