package flow

import (
	"errors"
	"fmt"
	"io"
	"time"

	"FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/protocol"
)

// maxPrealloc caps the up-front allocation for large thresholds.
const maxPrealloc = 4096

// ErrInvalidThreshold is returned when the truncation threshold is not positive.
var ErrInvalidThreshold = errors.New("truncation threshold must be positive")

// DecodePolicy selects what happens when a frame is not TCP over IP.
type DecodePolicy string

const (
	// PolicySkip drops the frame; it does not count toward the threshold.
	PolicySkip DecodePolicy = "skip"
	// PolicyAbort fails the whole capture on the first undecodable frame.
	PolicyAbort DecodePolicy = "abort"
)

// ParsePolicy converts a config value into a DecodePolicy.
func ParsePolicy(s string) (DecodePolicy, error) {
	switch DecodePolicy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown decode policy: '%s'", s)
	}
}

// FrameSource is anything that yields frames until io.EOF, such as *pcap.Reader.
type FrameSource interface {
	Next() (*model.Frame, error)
}

// Stats describes what the builder saw while consuming a source.
type Stats struct {
	Accepted int
	Skipped  map[protocol.DecodeReason]int
}

// SkippedTotal returns the number of frames dropped for any reason.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Build reads at most n accepted frames from src and returns them as a Flow.
// Timestamps become offsets relative to the first frame src produced.
func Build(src FrameSource, n int, policy DecodePolicy) (*model.Flow, Stats, error) {
	stats := Stats{Skipped: make(map[protocol.DecodeReason]int)}
	if n <= 0 {
		return nil, stats, ErrInvalidThreshold
	}

	packets := make([]model.PacketRecord, 0, min(n, maxPrealloc))
	var origin time.Time
	haveOrigin := false

	for len(packets) < n {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var de *protocol.DecodeError
			if !errors.As(err, &de) {
				return nil, stats, err
			}
			if !haveOrigin {
				origin, haveOrigin = de.Timestamp, true
			}
			if policy == PolicyAbort {
				return nil, stats, err
			}
			stats.Skipped[de.Reason]++
			continue
		}

		if !haveOrigin {
			origin, haveOrigin = frame.Timestamp, true
		}
		if frame.PayloadLen < 0 {
			return nil, stats, fmt.Errorf("frame %d: negative payload length %d", frame.Index, frame.PayloadLen)
		}

		offset := frame.Timestamp.Sub(origin)
		packets = append(packets, model.NewPacketRecordAt(offset, frame.PayloadLen, frame.Direction))
	}

	stats.Accepted = len(packets)
	return model.NewFlow(packets), stats, nil
}
