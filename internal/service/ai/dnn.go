// Package ai runs the text detection and recognition networks behind the
// ocr engine interfaces.
package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"textwatch/internal/config"
	"textwatch/internal/logger"
	"textwatch/internal/service/ocr"

	"gocv.io/x/gocv"
)

// DNNEngine runs ONNX detection and recognition models with OpenCV's dnn module.
// A gocv.Net is not safe for concurrent use, so calls are serialized.
type DNNEngine struct {
	mu     sync.Mutex
	detNet gocv.Net
	recNet gocv.Net
	logger *logger.Logger
}

// NewDNNEngine loads both models from the paths in config.
func NewDNNEngine(config *config.Config, logger *logger.Logger) (*DNNEngine, error) {
	detNet, err := loadNet(config.DetectModelPath)
	if err != nil {
		return nil, fmt.Errorf("detection model: %w", err)
	}

	recNet, err := loadNet(config.RecognizeModelPath)
	if err != nil {
		detNet.Close()
		return nil, fmt.Errorf("recognition model: %w", err)
	}

	logger.Info("🧠 Text networks initialized (%s, %s)", config.DetectModelPath, config.RecognizeModelPath)
	return &DNNEngine{detNet: detNet, recNet: recNet, logger: logger}, nil
}

// loadNet reads an ONNX model and sets backend/target preferences.
func loadNet(path string) (gocv.Net, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return gocv.Net{}, fmt.Errorf("model file not found: %s", path)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return gocv.Net{}, fmt.Errorf("failed to load network %s", path)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return gocv.Net{}, fmt.Errorf("failed to set preferable backend or target")
	}
	return net, nil
}

// Detect implements ocr.Detector. A badly shaped output tensor is logged and
// yields no proposals; only a failed forward pass is an error.
func (e *DNNEngine) Detect(ctx context.Context, input *image.RGBA, inputSize int) (*ocr.DetectionOutput, error) {
	data, err := e.forward(ctx, &e.detNet, input, image.Pt(inputSize, inputSize))
	if err != nil {
		return nil, err
	}

	out, ok := ocr.DetectionFromTensor(data)
	if !ok {
		e.logger.Warning("Detection output of %d values is not a multiple of %d, ignoring", len(data), ocr.DetectionColumns)
	}
	return out, nil
}

// Recognize implements ocr.Recognizer. A badly shaped output tensor is logged
// and yields no characters.
func (e *DNNEngine) Recognize(ctx context.Context, input *image.RGBA, width, height int) (*ocr.RecognitionOutput, error) {
	data, err := e.forward(ctx, &e.recNet, input, image.Pt(width, height))
	if err != nil {
		return nil, err
	}

	out, ok := ocr.RecognitionFromTensor(data)
	if !ok {
		e.logger.Warning("Recognition output of %d values is not a multiple of %d, ignoring", len(data), ocr.RecognitionColumns)
	}
	return out, nil
}

// forward feeds input through net and returns a copy of the flat output tensor.
func (e *DNNEngine) forward(ctx context.Context, net *gocv.Net, input *image.RGBA, size image.Point) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if net.Empty() {
		return nil, fmt.Errorf("network not initialized")
	}

	mat, err := gocv.ImageToMatRGB(input)
	if err != nil {
		return nil, fmt.Errorf("failed to convert input: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, nil
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	// The tensor's memory goes away with output.
	return append([]float32(nil), data...), nil
}

func (e *DNNEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detNet.Close()
	e.recNet.Close()
}
