package pcap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/protocol"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrCapture marks container-level failures: unreadable, truncated or
// unrecognized capture files.
var ErrCapture = errors.New("capture error")

const pcapngMagic = 0x0A0D0D0A

type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Reader yields decoded frames from a pcap or pcapng capture, in file order.
type Reader struct {
	file   *os.File
	source packetDataSource
	index  int
}

// NewReader opens the capture file at filePath.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	r, err := NewReaderFrom(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// NewReaderFrom reads a capture from an arbitrary stream. The caller owns the stream.
func NewReaderFrom(in io.Reader) (*Reader, error) {
	br := bufio.NewReader(in)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file header: %v", ErrCapture, err)
	}

	var source packetDataSource
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		source, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		source, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return &Reader{source: source}, nil
}

// LinkType returns the link-layer type of the capture.
func (r *Reader) LinkType() layers.LinkType {
	return r.source.LinkType()
}

// Next returns the next frame. It returns io.EOF after the last frame, a
// *protocol.DecodeError for a frame that is not TCP over IP (the reader
// remains usable), and an error wrapping ErrCapture if the file is damaged.
func (r *Reader) Next() (*model.Frame, error) {
	data, ci, err := r.source.ReadPacketData()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrCapture, r.index, err)
	}

	index := r.index
	r.index++

	packet := gopacket.NewPacket(data, r.source.LinkType(), gopacket.Default)
	packet.Metadata().CaptureInfo = ci

	return protocol.ParsePacket(packet, index)
}

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() {
	if r.file != nil {
		r.file.Close()
	}
}
