package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net"
	"strconv"
	"time"

	"textwatch/internal/logger"
	"textwatch/internal/service/capture"

	"gocv.io/x/gocv"
)

const maxJPEGSize = 8 << 20

// UDPSource receives JPEG frames streamed as UDP datagrams by a capture agent.
type UDPSource struct {
	*capture.Latest
	port   int
	logger *logger.Logger
}

func NewUDPSource(port int, logger *logger.Logger) *UDPSource {
	return &UDPSource{
		Latest: capture.NewLatest(2 * time.Second),
		port:   port,
		logger: logger,
	}
}

// Run listens until ctx is cancelled, decoding every completed JPEG.
func (s *UDPSource) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP port %d: %w", s.port, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Info("📡 UDP capture listening on port %d", s.port)

	buffer := make([]byte, 65536)
	assembler := &Assembler{MaxSize: maxJPEGSize}

	for {
		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		data, ok := assembler.Write(buffer[:n])
		if !ok {
			continue
		}

		img, err := decodeJPEG(data)
		if err != nil {
			s.logger.Warning("Dropping frame: %v", err)
			continue
		}
		s.Publish(img)
	}
}

func decodeJPEG(data []byte) (*image.RGBA, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return matToRGBA(mat)
}
