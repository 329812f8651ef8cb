package model

import (
	"math"
	"net"
	"time"
)

// Sentinel marks a feature slot that could not be filled from the flow.
const Sentinel = -1.0

// Direction is the coarse direction of a packet relative to the local host.
type Direction int8

const (
	// Upstream packets are sourced by the local (client) side.
	Upstream Direction = 1
	// Downstream packets are sourced by the remote side.
	Downstream Direction = -1
)

// Directions lists both directions in feature-vector order.
var Directions = [...]Direction{Upstream, Downstream}

func (d Direction) String() string {
	switch d {
	case Upstream:
		return "up"
	case Downstream:
		return "down"
	default:
		return "unknown"
	}
}

// Frame holds the fields decoded from a single captured frame.
type Frame struct {
	Index      int
	Timestamp  time.Time
	SrcIP      net.IP
	DstIP      net.IP
	SrcPort    uint16
	DstPort    uint16
	PayloadLen int
	Direction  Direction
}

// PacketRecord is the immutable per-packet value a Flow is made of.
type PacketRecord struct {
	offset    time.Duration
	size      int
	direction Direction
}

// NewPacketRecord creates a record. timestamp is in seconds from the start of
// the capture and is rounded to the nearest nanosecond.
func NewPacketRecord(timestamp float64, size int, direction Direction) PacketRecord {
	return NewPacketRecordAt(time.Duration(math.Round(timestamp*float64(time.Second))), size, direction)
}

// NewPacketRecordAt creates a record from its offset to the start of the capture.
func NewPacketRecordAt(offset time.Duration, size int, direction Direction) PacketRecord {
	return PacketRecord{offset: offset, size: size, direction: direction}
}

// Offset returns the exact capture-relative arrival time.
func (p PacketRecord) Offset() time.Duration { return p.offset }

// Timestamp returns the capture-relative arrival time in seconds.
func (p PacketRecord) Timestamp() float64 { return p.offset.Seconds() }

// Size returns the TCP payload length in bytes.
func (p PacketRecord) Size() int { return p.size }

// Direction returns the direction assigned at ingestion.
func (p PacketRecord) Direction() Direction { return p.direction }

// Flow is the ordered, bounded packet sequence extracted from one capture.
type Flow struct {
	packets []PacketRecord
}

// NewFlow creates a flow from records in arrival order. The slice is copied.
func NewFlow(packets []PacketRecord) *Flow {
	cp := make([]PacketRecord, len(packets))
	copy(cp, packets)
	return &Flow{packets: cp}
}

// Len returns the number of packets in the flow.
func (f *Flow) Len() int {
	if f == nil {
		return 0
	}
	return len(f.packets)
}

// At returns the i-th packet.
func (f *Flow) At(i int) PacketRecord {
	return f.packets[i]
}

// Packets returns a copy of all packets in arrival order.
func (f *Flow) Packets() []PacketRecord {
	out := make([]PacketRecord, f.Len())
	if f != nil {
		copy(out, f.packets)
	}
	return out
}

// Filter returns the packets of the given direction, preserving their order.
func (f *Flow) Filter(dir Direction) []PacketRecord {
	var out []PacketRecord
	for i := 0; i < f.Len(); i++ {
		if f.packets[i].direction == dir {
			out = append(out, f.packets[i])
		}
	}
	return out
}

// Count returns the number of packets in the given direction.
func (f *Flow) Count(dir Direction) int {
	n := 0
	for i := 0; i < f.Len(); i++ {
		if f.packets[i].direction == dir {
			n++
		}
	}
	return n
}

// FeatureVector is the flat numeric record produced for one capture.
type FeatureVector []float64

// FeatureRecord is a feature vector together with the metadata of the capture it came from.
type FeatureRecord struct {
	RunID         string
	Source        string
	Vector        FeatureVector
	FlowLen       int
	SkippedFrames int
	Err           error
}

// Failed reports whether the capture could not be turned into a vector.
func (r *FeatureRecord) Failed() bool {
	return r.Err != nil
}
