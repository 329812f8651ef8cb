package feature

import (
	"sort"
	"time"

	"FlowSpectra/internal/core/model"
)

// TimeBinEdges are the inter-arrival bin edges in milliseconds.
var TimeBinEdges = [...]float64{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9,
	10, 20, 30, 40, 50, 60, 70, 80, 90,
	100, 200, 300, 400, 500, 600, 700, 800, 900,
	1000,
}

// TimeBinCount is the number of output slots of TimeBins.
const TimeBinCount = len(TimeBinEdges)

// digitize returns the number of edges <= gap: 0 below the first edge,
// len(edges) at or above the last.
func digitize(gap float64) int {
	return sort.Search(len(TimeBinEdges), func(i int) bool { return TimeBinEdges[i] > gap })
}

// TimeBins returns the share of same-direction inter-arrival gaps falling into
// each bin. Gaps are taken between consecutive packets of dir only.
func TimeBins(flow *model.Flow, dir model.Direction) []float64 {
	res := make([]float64, TimeBinCount)

	packets := flow.Filter(dir)
	if len(packets) < 2 {
		return res
	}

	var counts [TimeBinCount + 1]int
	total := 0
	for i := 1; i < len(packets); i++ {
		// Subtract integer offsets first so gaps on a bin edge stay on it.
		gap := float64(packets[i].Offset()-packets[i-1].Offset()) / float64(time.Millisecond)
		counts[digitize(gap)]++
		total++
	}

	// Bin 0 only holds negative gaps; it is part of the total but not reported.
	for k := 1; k <= TimeBinCount; k++ {
		if counts[k] > 0 {
			res[k-1] = round2(float64(counts[k]) / float64(total))
		}
	}
	return res
}
