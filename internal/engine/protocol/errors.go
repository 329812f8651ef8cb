package protocol

import (
	"fmt"
	"time"
)

// DecodeReason names why a frame could not be turned into a packet record.
type DecodeReason string

const (
	ReasonNoNetwork DecodeReason = "no-network"
	ReasonNoTCP     DecodeReason = "no-tcp"
	ReasonMalformed DecodeReason = "malformed"
)

// DecodeError is returned for a single frame that lacks the expected
// link/network/transport layering. It never invalidates the rest of the capture.
type DecodeError struct {
	Index     int
	Timestamp time.Time
	Reason    DecodeReason
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("frame %d: %s", e.Index, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
