package protocol

import (
	"FlowSpectra/internal/core/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ParsePacket extracts the timestamp, addresses, ports and TCP payload length
// from a decoded packet. index is the frame's position in the capture and is
// only used to annotate errors.
func ParsePacket(packet gopacket.Packet, index int) (*model.Frame, error) {
	frame := &model.Frame{Index: index}

	if meta := packet.Metadata(); meta != nil {
		frame.Timestamp = meta.Timestamp
	}

	// IPv4 first, IPv6 as fallback; a capture may mix both.
	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		frame.SrcIP = ip.SrcIP
		frame.DstIP = ip.DstIP
	} else if l := packet.Layer(layers.LayerTypeIPv6); l != nil {
		ip := l.(*layers.IPv6)
		frame.SrcIP = ip.SrcIP
		frame.DstIP = ip.DstIP
	} else {
		return nil, decodeFailure(packet, index, ReasonNoNetwork)
	}

	l := packet.Layer(layers.LayerTypeTCP)
	if l == nil {
		return nil, decodeFailure(packet, index, ReasonNoTCP)
	}
	tcp := l.(*layers.TCP)
	frame.SrcPort = uint16(tcp.SrcPort)
	frame.DstPort = uint16(tcp.DstPort)
	frame.PayloadLen = len(tcp.Payload)

	frame.Direction = ClassifyDirection(frame.SrcIP)

	return frame, nil
}

// decodeFailure prefers the decoder's own error when gopacket recorded one.
func decodeFailure(packet gopacket.Packet, index int, reason DecodeReason) error {
	de := &DecodeError{Index: index, Reason: reason}
	if meta := packet.Metadata(); meta != nil {
		de.Timestamp = meta.Timestamp
	}
	if el := packet.ErrorLayer(); el != nil {
		de.Reason = ReasonMalformed
		de.Err = el.Error()
	}
	return de
}
