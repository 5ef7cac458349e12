package ocr

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

const (
	// DefaultDetectInputSize is the side of the square detector input.
	DefaultDetectInputSize = 960
	// RecognizeInputHeight is the fixed recognizer input height.
	RecognizeInputHeight = 32
	// RecognizeInputWidth is the fixed recognizer input width.
	RecognizeInputWidth = 960
)

// DetectionInput is a frame fitted into the square detector input.
type DetectionInput struct {
	Image *image.RGBA
	// Scale is the factor frame pixels were multiplied by.
	Scale float64
}

// PrepareDetectionInput resizes src so its longer side equals size and pads
// it with black to a size x size square, content anchored top-left.
func PrepareDetectionInput(src image.Image, size int) DetectionInput {
	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	longest := max(b.Dx(), b.Dy())
	if longest == 0 || size <= 0 {
		return DetectionInput{Image: canvas}
	}

	scale := float64(size) / float64(longest)
	w := max(1, min(size, int(math.Round(float64(b.Dx())*scale))))
	h := max(1, min(size, int(math.Round(float64(b.Dy())*scale))))

	draw.ApproxBiLinear.Scale(canvas, image.Rect(0, 0, w, h), src, b, draw.Src, nil)
	return DetectionInput{Image: canvas, Scale: scale}
}

// RecognitionInput is a line crop fitted into the fixed recognizer input.
type RecognitionInput struct {
	Image    *image.RGBA
	Geometry Geometry
}

// PrepareRecognitionInput resizes crop to the recognizer height keeping its
// aspect ratio, shrinks it further when it would be wider than the input and
// pads the rest with black. ok is false for crops that are not wider than
// they are tall; those are not treated as horizontal text lines.
func PrepareRecognitionInput(crop image.Image) (RecognitionInput, bool) {
	b := crop.Bounds()
	cw, ch := b.Dx(), b.Dy()
	if cw <= ch || ch <= 0 {
		return RecognitionInput{}, false
	}

	w := int(math.Round(float64(cw) * RecognizeInputHeight / float64(ch)))
	h := RecognizeInputHeight
	if w > RecognizeInputWidth {
		h = max(1, int(math.Round(float64(ch)*RecognizeInputWidth/float64(cw))))
		w = RecognizeInputWidth
	}
	w = max(1, w)

	canvas := image.NewRGBA(image.Rect(0, 0, RecognizeInputWidth, RecognizeInputHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, image.Rect(0, 0, w, h), crop, b, draw.Src, nil)

	return RecognitionInput{
		Image: canvas,
		Geometry: Geometry{
			CropWidth:      cw,
			CropHeight:     ch,
			EffectiveWidth: w,
			InputHeight:    RecognizeInputHeight,
		},
	}, true
}

// CropRegion returns the part of frame covered by box, or false when the
// intersection is empty.
func CropRegion(frame *image.RGBA, box Box) (*image.RGBA, bool) {
	r := box.Rect().Intersect(frame.Bounds())
	if r.Empty() {
		return nil, false
	}
	sub, ok := frame.SubImage(r).(*image.RGBA)
	return sub, ok
}
