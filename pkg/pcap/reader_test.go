package pcap

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/protocol"
	"FlowSpectra/pkg/pcapgen"
)

var (
	client = net.ParseIP("192.168.0.2")
	server = net.ParseIP("93.184.216.34")
	base   = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
)

func samplePackets() []pcapgen.Packet {
	return []pcapgen.Packet{
		{Offset: 0, SrcIP: client, DstIP: server, SrcPort: 40000, DstPort: 443, Payload: 40},
		{Offset: 500 * time.Microsecond, SrcIP: server, DstIP: client, SrcPort: 443, DstPort: 40000, Payload: 1500},
		{Offset: time.Millisecond, SrcIP: client, DstIP: server, SrcPort: 5353, DstPort: 53, Payload: 20, UDP: true},
		{Offset: 2 * time.Millisecond, SrcIP: client, DstIP: server, SrcPort: 40000, DstPort: 443, Payload: 60},
	}
}

func readAll(t *testing.T, r *Reader) ([]*model.Frame, []*protocol.DecodeError) {
	t.Helper()
	var frames []*model.Frame
	var decodeErrs []*protocol.DecodeError
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, decodeErrs
		}
		var de *protocol.DecodeError
		if errors.As(err, &de) {
			decodeErrs = append(decodeErrs, de)
			continue
		}
		if err != nil {
			t.Fatalf("Unexpected read error: %v", err)
		}
		frames = append(frames, frame)
	}
}

func TestReader_ReadsPcapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.pcap")
	if err := pcapgen.WriteFile(path, base, samplePackets()); err != nil {
		t.Fatalf("Failed to write pcap: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	frames, decodeErrs := readAll(t, reader)
	if len(frames) != 3 {
		t.Fatalf("Expected 3 TCP frames, got %d", len(frames))
	}
	if len(decodeErrs) != 1 || decodeErrs[0].Index != 2 || decodeErrs[0].Reason != protocol.ReasonNoTCP {
		t.Fatalf("Expected one no-tcp decode error at index 2, got %+v", decodeErrs)
	}

	wantSizes := []int{40, 1500, 60}
	wantDirs := []model.Direction{model.Upstream, model.Downstream, model.Upstream}
	for i, f := range frames {
		if f.PayloadLen != wantSizes[i] || f.Direction != wantDirs[i] {
			t.Errorf("Frame %d: got size %d dir %s, want %d %s", i, f.PayloadLen, f.Direction, wantSizes[i], wantDirs[i])
		}
	}
	if !frames[1].Timestamp.Equal(base.Add(500 * time.Microsecond)) {
		t.Errorf("Unexpected timestamp for frame 1: %v", frames[1].Timestamp)
	}
}

func TestReader_ReadsPcapNG(t *testing.T) {
	var buf bytes.Buffer
	if err := pcapgen.WriteNg(&buf, base, samplePackets()); err != nil {
		t.Fatalf("Failed to write pcapng: %v", err)
	}

	reader, err := NewReaderFrom(&buf)
	if err != nil {
		t.Fatalf("Failed to create pcapng reader: %v", err)
	}
	frames, decodeErrs := readAll(t, reader)
	if len(frames) != 3 || len(decodeErrs) != 1 {
		t.Fatalf("Expected 3 frames and 1 decode error, got %d and %d", len(frames), len(decodeErrs))
	}
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.pcap"))
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("Expected ErrCapture, got %v", err)
	}
}

func TestReader_NotACapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pcap")
	if err := os.WriteFile(path, []byte("definitely not a capture file"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewReader(path)
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("Expected ErrCapture, got %v", err)
	}
}

func TestReader_TruncatedCapture(t *testing.T) {
	var buf bytes.Buffer
	if err := pcapgen.Write(&buf, base, samplePackets()); err != nil {
		t.Fatalf("Failed to write pcap: %v", err)
	}
	data := buf.Bytes()[:buf.Len()-10]

	reader, err := NewReaderFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}

	var lastErr error
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		var de *protocol.DecodeError
		if err != nil && !errors.As(err, &de) {
			lastErr = err
			break
		}
	}
	if !errors.Is(lastErr, ErrCapture) {
		t.Fatalf("Expected truncated capture to surface ErrCapture, got %v", lastErr)
	}
}
