package ocr

import (
	"image"
	"math"
)

// Box is an axis-aligned rectangle in some pixel space, corners (X1,Y1) and (X2,Y2).
type Box struct {
	X1, Y1, X2, Y2 float64
}

func (b Box) Width() float64  { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Overlaps reports whether the rectangles share interior area. Touching edges do not overlap.
func (b Box) Overlaps(o Box) bool {
	return !(b.X2 <= o.X1 || o.X2 <= b.X1 || b.Y2 <= o.Y1 || o.Y2 <= b.Y1)
}

// Union returns the smallest box containing both.
func (b Box) Union(o Box) Box {
	return Box{
		X1: math.Min(b.X1, o.X1),
		Y1: math.Min(b.Y1, o.Y1),
		X2: math.Max(b.X2, o.X2),
		Y2: math.Max(b.Y2, o.Y2),
	}
}

// Clamp limits every coordinate to [0,w] x [0,h].
func (b Box) Clamp(w, h float64) Box {
	return Box{
		X1: clamp(b.X1, 0, w),
		Y1: clamp(b.Y1, 0, h),
		X2: clamp(b.X2, 0, w),
		Y2: clamp(b.Y2, 0, h),
	}
}

// Rect converts to integer pixel bounds, rounding outward.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.X1)),
		int(math.Floor(b.Y1)),
		int(math.Ceil(b.X2)),
		int(math.Ceil(b.Y2)),
	)
}

// Scale maps a coordinate from one pixel space to another: v*Factor + Offset.
type Scale struct {
	Factor float64
	Offset float64
}

// Apply maps v.
func (s Scale) Apply(v float64) float64 {
	return v*s.Factor + s.Offset
}

// Inverse returns the scale mapping back. A zero factor has no inverse and yields the zero Scale.
func (s Scale) Inverse() Scale {
	if s.Factor == 0 {
		return Scale{}
	}
	return Scale{Factor: 1 / s.Factor, Offset: -s.Offset / s.Factor}
}

// Transform maps boxes between pixel spaces with independent X and Y scales.
type Transform struct {
	X Scale
	Y Scale
}

// Box maps every corner of b.
func (t Transform) Box(b Box) Box {
	return Box{
		X1: t.X.Apply(b.X1),
		Y1: t.Y.Apply(b.Y1),
		X2: t.X.Apply(b.X2),
		Y2: t.Y.Apply(b.Y2),
	}
}

// DetectionTransform maps detector-input pixels back to frame pixels for an
// input produced by resizing the frame by resizeScale.
func DetectionTransform(resizeScale float64) Transform {
	s := Scale{Factor: resizeScale}.Inverse()
	return Transform{X: s, Y: s}
}

// RecognitionTransform maps recognizer-input pixels to crop pixels.
// X uses the effective content width so padding never stretches the crop,
// Y uses the fixed input height.
func RecognitionTransform(cropWidth, cropHeight, effectiveWidth, inputHeight int) Transform {
	var t Transform
	if effectiveWidth > 0 {
		t.X = Scale{Factor: float64(cropWidth) / float64(effectiveWidth)}
	}
	if inputHeight > 0 {
		t.Y = Scale{Factor: float64(cropHeight) / float64(inputHeight)}
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func validFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
