package main

import (
	"fmt"
	"os"
	"path/filepath"

	"FlowSpectra/internal/output"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <features.gob>")
		os.Exit(1)
	}
	gobFile := os.Args[1]

	snaps, err := output.ReadSnapshots(gobFile)
	if err != nil {
		log.Fatalf("Failed to decode gob data: %v", err)
	}

	fmt.Printf("%s: %d records\n", filepath.Base(gobFile), len(snaps))
	for _, s := range snaps {
		fmt.Printf("%s run=%s packets=%d skipped=%d width=%d\n", s.Source, s.RunID, s.FlowLen, s.Skipped, len(s.Vector))
	}
}
