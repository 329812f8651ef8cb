package feature

import (
	"sort"

	"FlowSpectra/internal/core/model"
)

// TopSizeCount is the number of slots in the size-distribution families.
const TopSizeCount = 5

type sizeFreq struct {
	size  int
	count int
}

// topSizes ranks sizes by descending frequency, breaking ties by ascending size.
func topSizes(flow *model.Flow, dir model.Direction) ([]sizeFreq, int) {
	freq := make(map[int]int)
	total := 0
	for _, p := range flow.Filter(dir) {
		freq[p.Size()]++
		total++
	}

	ranked := make([]sizeFreq, 0, len(freq))
	for size, count := range freq {
		ranked = append(ranked, sizeFreq{size: size, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].size < ranked[j].size
	})

	if len(ranked) > TopSizeCount {
		ranked = ranked[:TopSizeCount]
	}
	return ranked, total
}

func padded() []float64 {
	res := make([]float64, TopSizeCount)
	for i := range res {
		res[i] = model.Sentinel
	}
	return res
}

// Top5Size returns the five most frequent payload sizes in dir.
func Top5Size(flow *model.Flow, dir model.Direction) []float64 {
	res := padded()
	ranked, _ := topSizes(flow, dir)
	for i, e := range ranked {
		res[i] = float64(e.size)
	}
	return res
}

// Top5SizePercentage returns, for the same entries as Top5Size, the share of
// dir's packets with that size in percent.
func Top5SizePercentage(flow *model.Flow, dir model.Direction) []float64 {
	res := padded()
	ranked, total := topSizes(flow, dir)
	for i, e := range ranked {
		res[i] = round2(float64(e.count) / float64(total) * 100)
	}
	return res
}
