// Package ocr reduces raw text detection and recognition network output to
// ordered line text, and sequences both stages over a frame.
package ocr

import (
	"context"
	"image"
	"strings"
	"sync/atomic"
	"time"
)

// Line is the recognized text of one region.
type Line struct {
	Text       string
	Region     Region
	Confidence float64
	Chars      []CharCandidate
}

// Result is the outcome of one pass over a frame.
type Result struct {
	Lines    []Line
	Regions  int
	Duration time.Duration
}

// Text joins the non-empty line texts in reading order with line breaks.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Text != "" {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// PipelineOptions configures a Pipeline. Zero values take the package defaults.
type PipelineOptions struct {
	DetectInputSize     int
	DetectConfidence    float64
	RecognizeConfidence float64
	XOverlap            float64
}

// Pipeline runs detection once per frame and recognition once per region.
// Only one pass runs at a time; a concurrent request fails with ErrBusy.
type Pipeline struct {
	detector   Detector
	recognizer Recognizer
	detect     DetectionReducer
	recognize  RecognitionReducer
	inputSize  int
	busy       atomic.Bool
}

// NewPipeline creates a Pipeline over the given engines.
func NewPipeline(detector Detector, recognizer Recognizer, opts PipelineOptions) *Pipeline {
	if opts.DetectInputSize <= 0 {
		opts.DetectInputSize = DefaultDetectInputSize
	}
	if opts.DetectConfidence == 0 {
		opts.DetectConfidence = DefaultDetectConfidence
	}
	if opts.RecognizeConfidence == 0 {
		opts.RecognizeConfidence = DefaultRecognizeConfidence
	}
	if opts.XOverlap == 0 {
		opts.XOverlap = DefaultXOverlap
	}

	return &Pipeline{
		detector:   detector,
		recognizer: recognizer,
		detect:     DetectionReducer{MinConfidence: opts.DetectConfidence},
		recognize:  RecognitionReducer{MinConfidence: opts.RecognizeConfidence, MaxOverlap: opts.XOverlap},
		inputSize:  opts.DetectInputSize,
	}
}

// Busy reports whether a pass is in flight.
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

// Run performs one full pass over frame. An engine failure aborts the pass
// and is returned as an *InferenceError.
func (p *Pipeline) Run(ctx context.Context, frame *image.RGBA) (*Result, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	started := time.Now()
	b := frame.Bounds()

	in := PrepareDetectionInput(frame, p.inputSize)
	out, err := p.detector.Detect(ctx, in.Image, p.inputSize)
	if err != nil {
		return nil, &InferenceError{Stage: "detection", Err: err}
	}

	regions := p.detect.Reduce(out, in.Scale, b.Dx(), b.Dy())
	result := &Result{Regions: len(regions)}

	for _, region := range regions {
		// Regions are in frame-relative pixels; shift into the frame's bounds.
		abs := Box{
			X1: region.Box.X1 + float64(b.Min.X),
			Y1: region.Box.Y1 + float64(b.Min.Y),
			X2: region.Box.X2 + float64(b.Min.X),
			Y2: region.Box.Y2 + float64(b.Min.Y),
		}
		crop, ok := CropRegion(frame, abs)
		if !ok {
			continue
		}

		line, err := p.recognizeRegion(ctx, crop, region)
		if err != nil {
			return nil, err
		}
		result.Lines = append(result.Lines, line)
	}

	result.Duration = time.Since(started)
	return result, nil
}

func (p *Pipeline) recognizeRegion(ctx context.Context, crop *image.RGBA, region Region) (Line, error) {
	line := Line{Region: region}

	in, ok := PrepareRecognitionInput(crop)
	if !ok {
		return line, nil
	}

	out, err := p.recognizer.Recognize(ctx, in.Image, RecognizeInputWidth, RecognizeInputHeight)
	if err != nil {
		return line, &InferenceError{Stage: "recognition", Err: err}
	}

	line.Text, line.Chars = p.recognize.Reduce(out, in.Geometry)
	if len(line.Chars) > 0 {
		var sum float64
		for _, c := range line.Chars {
			sum += c.Confidence
		}
		line.Confidence = sum / float64(len(line.Chars))
	}
	return line, nil
}
