package feature

import "FlowSpectra/internal/core/model"

// Speed slot positions in the NetworkSpeed result.
const (
	SpeedOverall = iota
	SpeedUpstream
	SpeedDownstream
)

type speedAcc struct {
	bytes int
	last  float64
}

func (a speedAcc) speed() float64 {
	if a.last == 0 {
		return model.Sentinel
	}
	return float64(a.bytes) / a.last
}

// NetworkSpeed returns bytes per second for the whole flow, upstream and
// downstream. Each figure is total bytes divided by the capture-relative time
// of the category's last packet, i.e. the average since capture start. A
// category with no packet, or whose last packet is at time 0, yields Sentinel.
func NetworkSpeed(flow *model.Flow) [3]float64 {
	var acc [3]speedAcc
	for i := 0; i < flow.Len(); i++ {
		p := flow.At(i)
		acc[SpeedOverall].bytes += p.Size()
		acc[SpeedOverall].last = p.Timestamp()

		switch p.Direction() {
		case model.Upstream:
			acc[SpeedUpstream].bytes += p.Size()
			acc[SpeedUpstream].last = p.Timestamp()
		case model.Downstream:
			acc[SpeedDownstream].bytes += p.Size()
			acc[SpeedDownstream].last = p.Timestamp()
		}
	}
	return [3]float64{acc[0].speed(), acc[1].speed(), acc[2].speed()}
}
