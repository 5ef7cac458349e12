// Package capture provides the frame sources a session samples from.
package capture

import (
	"errors"
	"image"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// ErrNoFrame is returned by a source that has not produced a frame yet.
var ErrNoFrame = errors.New("no frame available")

// Frame is one captured image.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
	Seq       uint64
}

// Source is sampled by a session. CurrentFrame returns the latest frame
// without blocking; Paused reports whether the source is not delivering.
type Source interface {
	CurrentFrame() (*Frame, error)
	Paused() bool
}

// ToRGBA returns img as an *image.RGBA with its origin at (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Latest keeps the most recent frame published by a capture loop and
// implements Source over it.
type Latest struct {
	mu         sync.RWMutex
	frame      *Frame
	seq        uint64
	staleAfter time.Duration
	now        func() time.Time
}

func NewLatest(staleAfter time.Duration) *Latest {
	return &Latest{staleAfter: staleAfter, now: time.Now}
}

// Publish stores img as the newest frame.
func (l *Latest) Publish(img *image.RGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.frame = &Frame{Image: img, Timestamp: l.now(), Seq: l.seq}
}

func (l *Latest) CurrentFrame() (*Frame, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frame == nil {
		return nil, ErrNoFrame
	}
	return l.frame, nil
}

// Paused is true until the first frame arrives and whenever the newest frame
// is older than staleAfter.
func (l *Latest) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.frame == nil {
		return true
	}
	return l.staleAfter > 0 && l.now().Sub(l.frame.Timestamp) > l.staleAfter
}
