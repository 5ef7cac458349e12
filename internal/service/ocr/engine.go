package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInference marks a failed engine call. Match with errors.Is.
	ErrInference = errors.New("inference failed")
	// ErrBusy is returned when a pass is requested while another is running.
	ErrBusy = errors.New("ocr pass already in flight")
)

// Detector runs the text detection network on a prepared square input.
type Detector interface {
	Detect(ctx context.Context, input *image.RGBA, inputSize int) (*DetectionOutput, error)
}

// Recognizer runs the text recognition network on a prepared line input.
type Recognizer interface {
	Recognize(ctx context.Context, input *image.RGBA, width, height int) (*RecognitionOutput, error)
}

// InferenceError wraps an engine failure with the stage it happened in.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInference, e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == ErrInference }
