package feature

import "FlowSpectra/internal/core/model"

// DirectionSum returns the number of packets in dir.
func DirectionSum(flow *model.Flow, dir model.Direction) int {
	return flow.Count(dir)
}

// DirectionPercentage returns the share of the flow's packets in dir, in
// percent. An empty flow yields 0.
func DirectionPercentage(flow *model.Flow, dir model.Direction) float64 {
	total := flow.Len()
	if total == 0 {
		return 0
	}
	return round2(float64(flow.Count(dir)) / float64(total) * 100)
}

// DirectionRatio returns downstream packets per 100 upstream packets over the
// whole flow, or Sentinel when there is no upstream packet.
func DirectionRatio(flow *model.Flow) float64 {
	up := flow.Count(model.Upstream)
	if up == 0 {
		return model.Sentinel
	}
	down := flow.Count(model.Downstream)
	return round2(float64(down) / float64(up) * 100)
}
