// Package motion decides when on-screen text has finished changing.
//
// A Differ turns consecutive frames into a changed-pixel fraction and Step
// feeds that fraction through the Idle -> ChangeDetected -> WaitingForStability
// state machine. Neither performs I/O.
package motion

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

const (
	// DefaultDownscale is the integer factor frames are shrunk by before comparison.
	DefaultDownscale = 4
	// DefaultPixelThreshold is the summed |dR|+|dG|+|dB| above which a pixel counts as changed.
	DefaultPixelThreshold = 20
)

// ErrDimensionMismatch is returned by Diff when the two frames differ in size.
var ErrDimensionMismatch = errors.New("frame dimensions differ")

// Differ keeps the previous downsampled frame and reports how much changed since.
type Differ struct {
	downscale      int
	pixelThreshold int
	previous       *image.RGBA
}

// NewDiffer creates a Differ. Non-positive arguments fall back to the defaults.
func NewDiffer(downscale, pixelThreshold int) *Differ {
	if downscale < 1 {
		downscale = DefaultDownscale
	}
	if pixelThreshold < 0 {
		pixelThreshold = DefaultPixelThreshold
	}
	return &Differ{downscale: downscale, pixelThreshold: pixelThreshold}
}

// Sample downsamples frame, compares it with the previous sample and keeps it
// for the next call. ok is false when there is no signal: first call after
// construction or Reset, or the source changed size.
func (d *Differ) Sample(frame *image.RGBA) (fraction float64, ok bool) {
	if frame == nil {
		return 0, false
	}

	current := Downsample(frame, d.downscale)
	previous := d.previous
	d.previous = current

	if previous == nil {
		return 0, false
	}

	fraction, err := Diff(previous, current, d.pixelThreshold)
	if err != nil {
		return 0, false
	}
	return fraction, true
}

// Reset forgets the previous frame.
func (d *Differ) Reset() {
	d.previous = nil
}

// Downsample shrinks src by an integer factor using nearest-neighbour sampling.
// The result is at least 1x1 for a non-empty source.
func Downsample(src *image.RGBA, factor int) *image.RGBA {
	b := src.Bounds()
	if factor <= 1 {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	w := max(1, b.Dx()/factor)
	h := max(1, b.Dy()/factor)
	if b.Empty() {
		w, h = 0, 0
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Diff returns the fraction of pixels whose RGB channel differences sum above
// pixelThreshold. Alpha is ignored. Empty frames compare as unchanged.
func Diff(a, b *image.RGBA, pixelThreshold int) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, ErrDimensionMismatch
	}

	total := ab.Dx() * ab.Dy()
	if total == 0 {
		return 0, nil
	}

	changed := 0
	for y := 0; y < ab.Dy(); y++ {
		ia := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		ib := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		for x := 0; x < ab.Dx(); x++ {
			sum := absDiff(a.Pix[ia], b.Pix[ib]) +
				absDiff(a.Pix[ia+1], b.Pix[ib+1]) +
				absDiff(a.Pix[ia+2], b.Pix[ib+2])
			if sum > pixelThreshold {
				changed++
			}
			ia += 4
			ib += 4
		}
	}

	return float64(changed) / float64(total), nil
}

func absDiff(p, q uint8) int {
	if p > q {
		return int(p - q)
	}
	return int(q - p)
}
