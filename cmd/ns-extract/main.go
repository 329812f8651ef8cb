package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	app := &cli.App{
		Name:  "ns-extract",
		Usage: "turn packet captures into fixed-width traffic feature vectors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to the YAML configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level from the configuration",
			},
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "override extractor.threshold (packets per flow)",
			},
			&cli.BoolFlag{
				Name:  "throughput",
				Usage: "append the three throughput columns",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "batch",
				Usage:     "extract every capture under the inputs and send the records to the configured writers",
				ArgsUsage: "[DIR|FILE...]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "capture file or directory, may be repeated",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "override batch.num_workers",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write a CSV feature file here instead of the configured writers",
					},
					&cli.StringFlag{
						Name:  "label",
						Usage: "constant label column appended to every CSV row",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "write extraction metrics here in Prometheus text format when the batch ends",
					},
				},
				Action: batchAction,
			},
			{
				Name:      "inspect",
				Usage:     "print the named feature vector of one capture",
				ArgsUsage: "FILE",
				Action:    inspectAction,
			},
			{
				Name:   "schema",
				Usage:  "print the feature column names",
				Action: schemaAction,
			},
			{
				Name:      "sequence",
				Usage:     "print the size, time and speed sequences of captures, as JSON or side by side",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "compare",
						Usage: "print one sequence kind (size, time, speed) as a table with a column per capture",
					},
					&cli.StringFlag{
						Name:  "plot",
						Usage: "save a chart of the --compare kind to this image file",
					},
				},
				Action: sequenceAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
