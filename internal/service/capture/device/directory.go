package device

import (
	"fmt"
	"io"
	"time"

	"textwatch/internal/service/capture"

	"gocv.io/x/gocv"
)

// DirectorySource yields the images of a directory one by one, in name order.
type DirectorySource struct {
	files []string
	next  int
}

func NewDirectorySource(dir string) (*DirectorySource, error) {
	files, err := capture.ListImages(dir)
	if err != nil {
		return nil, err
	}
	return &DirectorySource{files: files}, nil
}

func (s *DirectorySource) Len() int { return len(s.files) }

// Next loads the next image. It returns io.EOF after the last one.
func (s *DirectorySource) Next() (*capture.Frame, string, error) {
	if s.next >= len(s.files) {
		return nil, "", io.EOF
	}
	path := s.files[s.next]
	s.next++

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, path, fmt.Errorf("failed to read image %s", path)
	}

	img, err := matToRGBA(mat)
	if err != nil {
		return nil, path, err
	}
	return &capture.Frame{Image: img, Timestamp: time.Now(), Seq: uint64(s.next)}, path, nil
}

// CurrentFrame advances to the next image so a session can replay the
// directory at its sampling rate.
func (s *DirectorySource) CurrentFrame() (*capture.Frame, error) {
	frame, _, err := s.Next()
	if err == io.EOF {
		return nil, capture.ErrNoFrame
	}
	return frame, err
}

func (s *DirectorySource) Paused() bool {
	return s.next >= len(s.files)
}
