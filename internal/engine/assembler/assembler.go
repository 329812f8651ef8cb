// Package assembler concatenates the feature families into one vector per capture.
//
// Column order:
//
//	F1 time bins      up(29) down(29)
//	F2 top-5 sizes    up(5)  down(5)
//	F3 top-5 shares   up(5)  down(5)
//	F4 counts         up     down
//	F5 percentages    up     down
//	F6 down/up ratio
//	F7 speeds         overall up down   (only with Options.Throughput)
package assembler

import (
	"fmt"

	"FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/feature"
)

// BaseWidth is the vector width without throughput columns.
const BaseWidth = 2*feature.TimeBinCount + 4*feature.TopSizeCount + 2 + 2 + 1

// Options selects optional feature families.
type Options struct {
	Throughput bool
}

// Width returns the number of columns produced with opts.
func Width(opts Options) int {
	if opts.Throughput {
		return BaseWidth + 3
	}
	return BaseWidth
}

// Assemble computes every enabled family over flow.
func Assemble(flow *model.Flow, opts Options) model.FeatureVector {
	vec := make(model.FeatureVector, 0, Width(opts))

	// F1
	for _, dir := range model.Directions {
		vec = append(vec, feature.TimeBins(flow, dir)...)
	}
	// F2
	for _, dir := range model.Directions {
		vec = append(vec, feature.Top5Size(flow, dir)...)
	}
	// F3
	for _, dir := range model.Directions {
		vec = append(vec, feature.Top5SizePercentage(flow, dir)...)
	}
	// F4
	for _, dir := range model.Directions {
		vec = append(vec, float64(feature.DirectionSum(flow, dir)))
	}
	// F5
	for _, dir := range model.Directions {
		vec = append(vec, feature.DirectionPercentage(flow, dir))
	}
	// F6
	vec = append(vec, feature.DirectionRatio(flow))
	// F7
	if opts.Throughput {
		speeds := feature.NetworkSpeed(flow)
		vec = append(vec, speeds[:]...)
	}
	return vec
}

// Columns returns stable column names matching Assemble's output.
func Columns(opts Options) []string {
	cols := make([]string, 0, Width(opts))
	for _, dir := range model.Directions {
		for k := 1; k <= feature.TimeBinCount; k++ {
			cols = append(cols, fmt.Sprintf("f1_%s_bin%02d", dir, k))
		}
	}
	for _, dir := range model.Directions {
		for k := 1; k <= feature.TopSizeCount; k++ {
			cols = append(cols, fmt.Sprintf("f2_%s_size%d", dir, k))
		}
	}
	for _, dir := range model.Directions {
		for k := 1; k <= feature.TopSizeCount; k++ {
			cols = append(cols, fmt.Sprintf("f3_%s_share%d", dir, k))
		}
	}
	for _, dir := range model.Directions {
		cols = append(cols, fmt.Sprintf("f4_%s_count", dir))
	}
	for _, dir := range model.Directions {
		cols = append(cols, fmt.Sprintf("f5_%s_percent", dir))
	}
	cols = append(cols, "f6_ratio")
	if opts.Throughput {
		cols = append(cols, "f7_overall_speed", "f7_up_speed", "f7_down_speed")
	}
	return cols
}
