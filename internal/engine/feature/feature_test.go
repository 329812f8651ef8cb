package feature

import (
	"math"
	"math/rand"
	"testing"

	"FlowSpectra/internal/core/model"
)

const (
	up   = model.Upstream
	down = model.Downstream
)

func rec(ts float64, size int, dir model.Direction) model.PacketRecord {
	return model.NewPacketRecord(ts, size, dir)
}

// exampleFlow interleaves three upstream and two downstream packets.
func exampleFlow() *model.Flow {
	return model.NewFlow([]model.PacketRecord{
		rec(0.000, 40, up),
		rec(0.0005, 1500, down),
		rec(0.001, 40, up),
		rec(0.0015, 1500, down),
		rec(0.002, 60, up),
	})
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func TestExampleFlow(t *testing.T) {
	flow := exampleFlow()

	if got := Top5Size(flow, up); !equalSlices(got, []float64{40, 60, -1, -1, -1}) {
		t.Errorf("Top5Size(up) = %v", got)
	}
	if got := Top5Size(flow, down); !equalSlices(got, []float64{1500, -1, -1, -1, -1}) {
		t.Errorf("Top5Size(down) = %v", got)
	}
	if got := Top5SizePercentage(flow, up); !equalSlices(got, []float64{66.67, 33.33, -1, -1, -1}) {
		t.Errorf("Top5SizePercentage(up) = %v", got)
	}
	if got := Top5SizePercentage(flow, down); !equalSlices(got, []float64{100, -1, -1, -1, -1}) {
		t.Errorf("Top5SizePercentage(down) = %v", got)
	}
	if got := DirectionSum(flow, up); got != 3 {
		t.Errorf("DirectionSum(up) = %d", got)
	}
	if got := DirectionSum(flow, down); got != 2 {
		t.Errorf("DirectionSum(down) = %d", got)
	}
	if got := DirectionPercentage(flow, up); got != 60.0 {
		t.Errorf("DirectionPercentage(up) = %v", got)
	}
	if got := DirectionPercentage(flow, down); got != 40.0 {
		t.Errorf("DirectionPercentage(down) = %v", got)
	}
	if got := DirectionRatio(flow); got != 66.67 {
		t.Errorf("DirectionRatio = %v", got)
	}

	bins := TimeBins(flow, up)
	if len(bins) != 29 {
		t.Fatalf("Expected 29 bins, got %d", len(bins))
	}
	// Two 1ms gaps land in the [1,2) bin.
	if bins[1] != 1.0 {
		t.Errorf("Expected all upstream gaps in slot 2, got %v", bins)
	}
	if s := sum(TimeBins(flow, down)); math.Abs(s-1) > 0.03 {
		t.Errorf("Downstream bins sum to %v", s)
	}
}

func TestTimeBins_Digitize(t *testing.T) {
	cases := []struct {
		gap  float64
		slot int
	}{
		{0, 1},
		{0.5, 1},
		{1, 2},
		{9.99, 10},
		{10, 11},
		{15, 11},
		{99.9, 19},
		{100, 20},
		{999, 28},
		{1000, 29},
		{50000, 29},
		{-3, 0},
	}
	for _, c := range cases {
		if got := digitize(c.gap); got != c.slot {
			t.Errorf("digitize(%v) = %d, want %d", c.gap, got, c.slot)
		}
	}
}

func TestTimeBins_Overflow(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{
		rec(0, 1, up),
		rec(1.0, 1, up),
		rec(2.5, 1, up),
	})
	bins := TimeBins(flow, up)
	if bins[28] != 1.0 {
		t.Errorf("Expected gaps of 1000ms and 1500ms in the last slot, got %v", bins)
	}
}

func TestTimeBins_SkipsOtherDirection(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{
		rec(0, 1, up),
		rec(0.003, 1, down),
		rec(0.005, 1, down),
		rec(0.050, 1, up),
	})
	bins := TimeBins(flow, up)
	// The only upstream gap is 50ms, measured across the downstream packets.
	if bins[14] != 1.0 {
		t.Errorf("Expected the single gap in the [50,60) slot, got %v", bins)
	}
}

func TestTimeBins_NegativeGapCountsInTotal(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{
		rec(0, 1, up),
		rec(1.0, 1, up),
		rec(0.5, 1, up),
	})
	bins := TimeBins(flow, up)
	if bins[28] != 0.5 {
		t.Errorf("Expected 0.5 in the overflow slot, got %v", bins)
	}
	if s := sum(bins); s != 0.5 {
		t.Errorf("Negative gaps must not be reported, sum = %v", s)
	}
}

func TestTimeBins_TooFewPackets(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{rec(0, 1, up), rec(1, 1, down)})
	for _, dir := range model.Directions {
		bins := TimeBins(flow, dir)
		if len(bins) != 29 || sum(bins) != 0 {
			t.Errorf("Expected 29 zeros for %s, got %v", dir, bins)
		}
	}
	if bins := TimeBins(model.NewFlow(nil), up); len(bins) != 29 || sum(bins) != 0 {
		t.Errorf("Expected 29 zeros for an empty flow, got %v", bins)
	}
}

func TestTop5_TieBreakAscendingSize(t *testing.T) {
	var packets []model.PacketRecord
	for _, size := range []int{900, 100, 700, 300, 500, 200, 800, 100, 900} {
		packets = append(packets, rec(0, size, up))
	}
	flow := model.NewFlow(packets)

	// 100 and 900 occur twice, the rest once.
	want := []float64{100, 900, 200, 300, 500}
	for i := 0; i < 20; i++ {
		if got := Top5Size(flow, up); !equalSlices(got, want) {
			t.Fatalf("Top5Size = %v, want %v", got, want)
		}
	}
	if got := Top5SizePercentage(flow, up); !equalSlices(got, []float64{22.22, 22.22, 11.11, 11.11, 11.11}) {
		t.Errorf("Top5SizePercentage = %v", got)
	}
}

func TestTop5_EmptyDirection(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{rec(0, 10, up)})
	if got := Top5Size(flow, down); !equalSlices(got, []float64{-1, -1, -1, -1, -1}) {
		t.Errorf("Top5Size on empty direction = %v", got)
	}
	if got := Top5SizePercentage(flow, down); !equalSlices(got, []float64{-1, -1, -1, -1, -1}) {
		t.Errorf("Top5SizePercentage on empty direction = %v", got)
	}
}

func TestDirection_EmptyFlow(t *testing.T) {
	flow := model.NewFlow(nil)
	if got := DirectionPercentage(flow, up); got != 0 {
		t.Errorf("DirectionPercentage on empty flow = %v", got)
	}
	if got := DirectionRatio(flow); got != -1 {
		t.Errorf("DirectionRatio on empty flow = %v", got)
	}
}

func TestDirectionRatio_NoUpstream(t *testing.T) {
	flow := model.NewFlow([]model.PacketRecord{rec(0, 1, down), rec(1, 1, down)})
	if got := DirectionRatio(flow); got != -1 {
		t.Errorf("Expected -1 without upstream packets, got %v", got)
	}
	flow = model.NewFlow([]model.PacketRecord{rec(0, 1, up)})
	if got := DirectionRatio(flow); got != 0 {
		t.Errorf("Expected 0 without downstream packets, got %v", got)
	}
}

func TestNetworkSpeed(t *testing.T) {
	got := NetworkSpeed(exampleFlow())
	want := [3]float64{3140 / 0.002, 140 / 0.002, 3000 / 0.0015}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("Speed slot %d = %v, want %v", i, got[i], want[i])
		}
	}

	onlyDown := model.NewFlow([]model.PacketRecord{rec(0.5, 100, down), rec(1.0, 100, down)})
	got = NetworkSpeed(onlyDown)
	if got[SpeedUpstream] != -1 {
		t.Errorf("Expected -1 upstream speed, got %v", got[SpeedUpstream])
	}
	if got[SpeedDownstream] != 200 || got[SpeedOverall] != 200 {
		t.Errorf("Unexpected speeds %v", got)
	}

	atZero := model.NewFlow([]model.PacketRecord{rec(0, 100, up)})
	if got := NetworkSpeed(atZero); got[SpeedUpstream] != -1 || got[SpeedOverall] != -1 {
		t.Errorf("Expected -1 when the last packet is at time 0, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0.125:             0.12,
		0.375:             0.38,
		2.675:             2.67,
		1.005:             1.0,
		66.66666666666667: 66.67,
		60.00000000000001: 60,
		-1:                -1,
	}
	for in, want := range cases {
		if got := round2(in); got != want {
			t.Errorf("round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSequences(t *testing.T) {
	flow := exampleFlow()
	sizes := SizeSequence(flow)
	wantSizes := []int{40, -1500, 40, -1500, 60}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] {
			t.Fatalf("SizeSequence = %v", sizes)
		}
	}
	times := TimeSequence(flow)
	if len(times) != 5 || times[4] != 0.002 {
		t.Errorf("TimeSequence = %v", times)
	}
	speeds := SpeedSequence(flow)
	if speeds[0] != 0 {
		t.Errorf("Expected 0 speed at time 0, got %v", speeds[0])
	}
	if want := 1540.0 / 1024 / 0.0005; math.Abs(speeds[1]-want) > 1e-9 {
		t.Errorf("SpeedSequence[1] = %v, want %v", speeds[1], want)
	}
}

func randomFlow(rng *rand.Rand, n int) *model.Flow {
	packets := make([]model.PacketRecord, n)
	ts := 0.0
	for i := range packets {
		ts += rng.ExpFloat64() * 0.05
		dir := up
		if rng.Intn(3) == 0 {
			dir = down
		}
		packets[i] = rec(ts, rng.Intn(8)*100, dir)
	}
	return model.NewFlow(packets)
}

func TestTimeBins_SumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// Three gap classes keep at most three non-zero bins, which bounds the
	// accumulated rounding error below 0.03.
	steps := []float64{0.0005, 0.015, 0.25}
	for iter := 0; iter < 100; iter++ {
		n := rng.Intn(40) + 2
		packets := make([]model.PacketRecord, n)
		ts := 0.0
		for i := range packets {
			ts += steps[rng.Intn(len(steps))]
			packets[i] = rec(ts, 1, up)
		}
		if s := sum(TimeBins(model.NewFlow(packets), up)); math.Abs(s-1) > 0.03 {
			t.Fatalf("TimeBins sums to %v for %d packets", s, n)
		}
	}
}

func TestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		flow := randomFlow(rng, rng.Intn(60))

		if DirectionSum(flow, up)+DirectionSum(flow, down) != flow.Len() {
			t.Fatalf("Direction sums do not add up to %d", flow.Len())
		}
		if (DirectionRatio(flow) == -1) != (flow.Count(up) == 0) {
			t.Fatalf("DirectionRatio sentinel mismatch for %d upstream packets", flow.Count(up))
		}
		speeds := NetworkSpeed(flow)
		if (speeds[SpeedUpstream] == -1) != (flow.Count(up) == 0) {
			t.Fatalf("Upstream speed sentinel mismatch for %d upstream packets", flow.Count(up))
		}
		if (speeds[SpeedDownstream] == -1) != (flow.Count(down) == 0) {
			t.Fatalf("Downstream speed sentinel mismatch for %d downstream packets", flow.Count(down))
		}

		for _, dir := range model.Directions {
			if len(TimeBins(flow, dir)) != TimeBinCount {
				t.Fatalf("TimeBins(%s) has the wrong width", dir)
			}

			sizes := Top5Size(flow, dir)
			if len(sizes) != 5 {
				t.Fatalf("Top5Size returned %d values", len(sizes))
			}
			observed := make(map[float64]bool)
			for _, p := range flow.Filter(dir) {
				observed[float64(p.Size())] = true
			}
			seen := make(map[float64]bool)
			for _, v := range sizes {
				if v == -1 {
					continue
				}
				if seen[v] || !observed[v] {
					t.Fatalf("Top5Size(%s) = %v has a duplicate or unobserved size", dir, sizes)
				}
				seen[v] = true
			}

			pcts := Top5SizePercentage(flow, dir)
			total := 0.0
			for _, v := range pcts {
				if v != -1 {
					total += v
				}
			}
			// Each of the five slots may round up by at most 0.005.
			if total > 100.025 {
				t.Fatalf("Top5SizePercentage(%s) sums to %v", dir, total)
			}
		}
	}
}
