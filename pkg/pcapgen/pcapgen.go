// Package pcapgen builds synthetic Ethernet/IP/TCP captures. It backs the
// pcapgen script and the tests that need real capture files.
package pcapgen

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapshotLen = 65536

// Packet describes one synthetic frame.
type Packet struct {
	// Offset from the capture's base time.
	Offset  time.Duration
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	Payload int
	// UDP emits a UDP datagram instead of a TCP segment.
	UDP bool
}

// Frame serializes a packet into Ethernet framing.
func Frame(p Packet) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC: net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
	}

	var network gopacket.SerializableLayer
	var netLayer gopacket.NetworkLayer
	proto := layers.IPProtocolTCP
	if p.UDP {
		proto = layers.IPProtocolUDP
	}
	if v4 := p.SrcIP.To4(); v4 != nil {
		eth.EthernetType = layers.EthernetTypeIPv4
		ip := &layers.IPv4{
			SrcIP:    v4,
			DstIP:    p.DstIP.To4(),
			Version:  4,
			TTL:      64,
			Protocol: proto,
		}
		network, netLayer = ip, ip
	} else {
		eth.EthernetType = layers.EthernetTypeIPv6
		ip := &layers.IPv6{
			SrcIP:      p.SrcIP,
			DstIP:      p.DstIP,
			Version:    6,
			HopLimit:   64,
			NextHeader: proto,
		}
		network, netLayer = ip, ip
	}

	var transport gopacket.SerializableLayer
	if p.UDP {
		udp := &layers.UDP{SrcPort: layers.UDPPort(p.SrcPort), DstPort: layers.UDPPort(p.DstPort)}
		if err := udp.SetNetworkLayerForChecksum(netLayer); err != nil {
			return nil, err
		}
		transport = udp
	} else {
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(p.SrcPort),
			DstPort: layers.TCPPort(p.DstPort),
			ACK:     true,
			PSH:     p.Payload > 0,
			Window:  14600,
		}
		if err := tcp.SetNetworkLayerForChecksum(netLayer); err != nil {
			return nil, err
		}
		transport = tcp
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	payload := gopacket.Payload(make([]byte, p.Payload))
	if err := gopacket.SerializeLayers(buf, opts, eth, network, transport, payload); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %w", err)
	}
	return buf.Bytes(), nil
}

// Write writes a classic pcap stream with the given packets.
func Write(w io.Writer, base time.Time, packets []Packet) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapshotLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}
	for i, p := range packets {
		data, err := Frame(p)
		if err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
		if err := pw.WritePacket(captureInfo(base.Add(p.Offset), data), data); err != nil {
			return fmt.Errorf("failed to write packet %d: %w", i, err)
		}
	}
	return nil
}

// WriteNg writes a pcapng stream with the given packets.
func WriteNg(w io.Writer, base time.Time, packets []Packet) error {
	nw, err := pcapgo.NewNgWriter(w, layers.LinkTypeEthernet)
	if err != nil {
		return fmt.Errorf("failed to create pcapng writer: %w", err)
	}
	for i, p := range packets {
		data, err := Frame(p)
		if err != nil {
			return fmt.Errorf("packet %d: %w", i, err)
		}
		if err := nw.WritePacket(captureInfo(base.Add(p.Offset), data), data); err != nil {
			return fmt.Errorf("failed to write packet %d: %w", i, err)
		}
	}
	return nw.Flush()
}

// WriteFile writes packets to a classic pcap file at path.
func WriteFile(path string, base time.Time, packets []Packet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, base, packets); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Random generates n packets alternating randomly between a local client and
// a remote server, spaced by up to maxGap.
func Random(rng *rand.Rand, n int, client, server net.IP, maxGap time.Duration) []Packet {
	packets := make([]Packet, 0, n)
	clientPort := uint16(rng.Intn(65535-1024) + 1024)
	var offset time.Duration
	for i := 0; i < n; i++ {
		if i > 0 && maxGap > 0 {
			offset += time.Duration(rng.Int63n(int64(maxGap)))
		}
		p := Packet{Offset: offset, Payload: rng.Intn(1400) + 50}
		if rng.Intn(2) == 0 {
			p.SrcIP, p.DstIP, p.SrcPort, p.DstPort = client, server, clientPort, 443
		} else {
			p.SrcIP, p.DstIP, p.SrcPort, p.DstPort = server, client, 443, clientPort
		}
		packets = append(packets, p)
	}
	return packets
}

func captureInfo(ts time.Time, data []byte) gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
}
