package ai

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"textwatch/internal/logger"
	"textwatch/internal/service/ocr"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// TesseractRecognizer recognizes a line with Tesseract and reports one box
// per symbol, so its output goes through the same reduction as the network's.
type TesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *logger.Logger
}

func NewTesseractRecognizer(language string, logger *logger.Logger) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	logger.Info("🔤 Tesseract recognizer initialized (%s)", language)
	return &TesseractRecognizer{client: client, logger: logger}, nil
}

// Recognize implements ocr.Recognizer. Tesseract confidences (0-100) are scaled to 0-1.
func (r *TesseractRecognizer) Recognize(ctx context.Context, input *image.RGBA, width, height int) (*ocr.RecognitionOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	png, err := encodePNG(input)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("failed to set OCR image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	out := &ocr.RecognitionOutput{}
	for _, b := range boxes {
		symbol := []rune(strings.TrimSpace(b.Word))
		if len(symbol) == 0 {
			continue
		}
		out.Labels = append(out.Labels, int32(symbol[0]))
		out.Boxes = append(out.Boxes,
			float32(b.Box.Min.X), float32(b.Box.Min.Y),
			float32(b.Box.Max.X), float32(b.Box.Max.Y))
		out.Scores = append(out.Scores, float32(b.Confidence/100))
	}
	return out, nil
}

func encodePNG(img *image.RGBA) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert input: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

func (r *TesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
