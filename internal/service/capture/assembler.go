package capture

import "bytes"

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// Assembler rebuilds JPEG images split across datagrams. A packet starting
// with the JPEG start marker begins a new image; one ending with the end
// marker completes it.
type Assembler struct {
	buf bytes.Buffer
	// MaxSize drops a partial image that grows past it. Zero means no limit.
	MaxSize int
}

// Write adds one packet and returns a complete image when the packet ends one.
func (a *Assembler) Write(packet []byte) ([]byte, bool) {
	if bytes.HasPrefix(packet, jpegHeader) {
		a.buf.Reset()
	} else if a.buf.Len() == 0 {
		// Tail of an image whose start was lost.
		return nil, false
	}
	a.buf.Write(packet)

	if a.MaxSize > 0 && a.buf.Len() > a.MaxSize {
		a.buf.Reset()
		return nil, false
	}

	if !bytes.HasSuffix(packet, jpegFooter) {
		return nil, false
	}
	full := make([]byte, a.buf.Len())
	copy(full, a.buf.Bytes())
	a.buf.Reset()
	return full, true
}
