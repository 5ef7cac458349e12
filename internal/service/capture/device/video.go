// Package device implements capture sources backed by OpenCV.
package device

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"textwatch/internal/logger"
	"textwatch/internal/service/capture"

	"gocv.io/x/gocv"
)

// VideoSource reads frames from a capture device, file or stream URL.
type VideoSource struct {
	*capture.Latest
	device string
	logger *logger.Logger
}

func NewVideoSource(device string, logger *logger.Logger) *VideoSource {
	return &VideoSource{
		Latest: capture.NewLatest(2 * time.Second),
		device: device,
		logger: logger,
	}
}

// Run opens the device and keeps the newest frame until ctx is cancelled or
// the stream ends.
func (s *VideoSource) Run(ctx context.Context) error {
	var device interface{} = s.device
	if id, err := strconv.Atoi(s.device); err == nil {
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("failed to open video capture %s: %w", s.device, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return fmt.Errorf("video capture %s is not opened", s.device)
	}
	s.logger.Info("🎥 Video capture opened: %s", s.device)

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !vc.Read(&mat) {
			s.logger.Warning("Video capture %s ended", s.device)
			return nil
		}
		if mat.Empty() {
			continue
		}

		img, err := matToRGBA(mat)
		if err != nil {
			s.logger.Warning("Dropping frame: %v", err)
			continue
		}
		s.Publish(img)
	}
}

func matToRGBA(mat gocv.Mat) (*image.RGBA, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return capture.ToRGBA(img), nil
}
