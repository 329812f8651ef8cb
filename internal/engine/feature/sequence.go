package feature

import "FlowSpectra/internal/core/model"

// SizeSequence returns payload sizes in arrival order, negated for downstream
// packets.
func SizeSequence(flow *model.Flow) []int {
	seq := make([]int, flow.Len())
	for i := range seq {
		p := flow.At(i)
		if p.Direction() == model.Downstream {
			seq[i] = -p.Size()
		} else {
			seq[i] = p.Size()
		}
	}
	return seq
}

// TimeSequence returns the capture-relative arrival times.
func TimeSequence(flow *model.Flow) []float64 {
	seq := make([]float64, flow.Len())
	for i := range seq {
		seq[i] = flow.At(i).Timestamp()
	}
	return seq
}

// SpeedSequence returns the cumulative throughput in KiB/s observed at each
// packet; packets at time 0 report 0.
func SpeedSequence(flow *model.Flow) []float64 {
	seq := make([]float64, flow.Len())
	total := 0
	for i := range seq {
		p := flow.At(i)
		total += p.Size()
		if p.Timestamp() != 0 {
			seq[i] = float64(total) / 1024 / p.Timestamp()
		}
	}
	return seq
}
