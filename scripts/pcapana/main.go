package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"FlowSpectra/internal/engine/protocol"
	"FlowSpectra/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

func main() {
	limit := flag.Int("n", 5, "Number of frames to print")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/pcapana/main.go [-n N] <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	reader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()
	fmt.Printf("link type: %s\n", reader.LinkType())

	for i := 0; i < *limit; i++ {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		var de *protocol.DecodeError
		if errors.As(err, &de) {
			fmt.Printf("#%d [%s] skipped: %s\n", de.Index, de.Timestamp.Format("15:04:05.000000"), de.Reason)
			continue
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("#%d [%s] %s:%d -> %s:%d dir=%s payload=%d\n",
			frame.Index, frame.Timestamp.Format("15:04:05.000000"),
			frame.SrcIP, frame.SrcPort, frame.DstIP, frame.DstPort,
			frame.Direction, frame.PayloadLen,
		)
	}
}
