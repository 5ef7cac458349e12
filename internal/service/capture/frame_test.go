package capture

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLatest(t *testing.T) {
	l := NewLatest(time.Second)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if _, err := l.CurrentFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected ErrNoFrame before first publish, got %v", err)
	}
	if !l.Paused() {
		t.Error("Expected paused before first frame")
	}

	l.Publish(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	l.Publish(image.NewRGBA(image.Rect(0, 0, 2, 2)))

	f, err := l.CurrentFrame()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.Seq != 2 {
		t.Errorf("Expected sequence 2, got %d", f.Seq)
	}
	if l.Paused() {
		t.Error("Expected fresh frame not to pause")
	}

	now = now.Add(2 * time.Second)
	if !l.Paused() {
		t.Error("Expected stale frame to pause")
	}
}

func TestToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(5, 5, 9, 8))
	gray.SetGray(5, 5, color.Gray{Y: 200})

	rgba := ToRGBA(gray)
	if rgba.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("Expected origin-anchored bounds, got %v", rgba.Bounds())
	}
	if c := rgba.RGBAAt(0, 0); c.R != 200 || c.G != 200 || c.B != 200 {
		t.Errorf("Unexpected converted pixel %v", c)
	}

	same := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if ToRGBA(same) != same {
		t.Error("Expected RGBA input to be returned as is")
	}
}

func TestAssembler(t *testing.T) {
	a := &Assembler{}

	if _, ok := a.Write([]byte{0x01, 0x02}); ok {
		t.Error("Expected orphan packet to be dropped")
	}
	if _, ok := a.Write([]byte{0xFF, 0xD8, 0x10}); ok {
		t.Error("Expected incomplete image")
	}
	img, ok := a.Write([]byte{0x20, 0xFF, 0xD9})
	if !ok {
		t.Fatal("Expected complete image")
	}
	expected := []byte{0xFF, 0xD8, 0x10, 0x20, 0xFF, 0xD9}
	if string(img) != string(expected) {
		t.Errorf("Expected %x, got %x", expected, img)
	}

	// A new start marker discards the unfinished image.
	a.Write([]byte{0xFF, 0xD8, 0x01})
	img, ok = a.Write([]byte{0xFF, 0xD8, 0x02, 0xFF, 0xD9})
	if !ok || len(img) != 5 || img[2] != 0x02 {
		t.Errorf("Expected restarted image, got %x", img)
	}
}

func TestAssembler_MaxSize(t *testing.T) {
	a := &Assembler{MaxSize: 4}
	a.Write([]byte{0xFF, 0xD8, 0x00})
	if _, ok := a.Write([]byte{0x00, 0xFF, 0xD9}); ok {
		t.Error("Expected oversized image to be dropped")
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", "c.webp"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListImages(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []string{"a.JPG", "b.png", "c.webp"}
	if len(files) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, files)
	}
	for i, name := range expected {
		if filepath.Base(files[i]) != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, files[i])
		}
	}

	if _, err := ListImages(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for a missing directory")
	}
}
