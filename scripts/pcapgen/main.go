package main

import (
	"flag"
	"math/rand"
	"net"
	"os"
	"time"

	"FlowSpectra/pkg/pcapgen"

	log "github.com/sirupsen/logrus"
)

func main() {
	outputFile := flag.String("o", "test.pcap", "Output capture file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	maxGap := flag.Duration("gap", 20*time.Millisecond, "Maximum inter-arrival gap")
	client := flag.String("client", "192.168.1.20", "Local endpoint address")
	server := flag.String("server", "151.101.1.69", "Remote endpoint address")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	ng := flag.Bool("ng", false, "Write pcapng instead of pcap")
	flag.Parse()

	clientIP, serverIP := net.ParseIP(*client), net.ParseIP(*server)
	if clientIP == nil || serverIP == nil {
		log.Fatalf("Invalid endpoint address: %s / %s", *client, *server)
	}

	log.Printf("Generating %d packets into %s...", *packetCount, *outputFile)
	packets := pcapgen.Random(rand.New(rand.NewSource(*seed)), *packetCount, clientIP, serverIP, *maxGap)

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	write := pcapgen.Write
	if *ng {
		write = pcapgen.WriteNg
	}
	if err := write(f, time.Now(), packets); err != nil {
		log.Fatalf("Failed to write capture: %v", err)
	}

	log.Printf("Successfully generated %d packets into %s.", *packetCount, *outputFile)
}
