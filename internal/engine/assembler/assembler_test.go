package assembler

import (
	"math"
	"testing"

	"FlowSpectra/internal/core/model"
)

func exampleFlow() *model.Flow {
	return model.NewFlow([]model.PacketRecord{
		model.NewPacketRecord(0.000, 40, model.Upstream),
		model.NewPacketRecord(0.0005, 1500, model.Downstream),
		model.NewPacketRecord(0.001, 40, model.Upstream),
		model.NewPacketRecord(0.0015, 1500, model.Downstream),
		model.NewPacketRecord(0.002, 60, model.Upstream),
	})
}

func TestAssemble_Layout(t *testing.T) {
	vec := Assemble(exampleFlow(), Options{})
	if len(vec) != 83 {
		t.Fatalf("Expected 83 columns, got %d", len(vec))
	}

	// F2 starts after the 58 time-bin columns.
	wantF2 := []float64{40, 60, -1, -1, -1, 1500, -1, -1, -1, -1}
	for i, want := range wantF2 {
		if vec[58+i] != want {
			t.Errorf("F2 column %d = %v, want %v", i, vec[58+i], want)
		}
	}

	tail := vec[78:]
	wantTail := []float64{3, 2, 60, 40, 66.67}
	for i, want := range wantTail {
		if tail[i] != want {
			t.Errorf("Column %d = %v, want %v", 78+i, tail[i], want)
		}
	}
}

func TestAssemble_Throughput(t *testing.T) {
	vec := Assemble(exampleFlow(), Options{Throughput: true})
	if len(vec) != 86 {
		t.Fatalf("Expected 86 columns, got %d", len(vec))
	}
	if vec[82] != 66.67 {
		t.Errorf("F6 moved: column 82 = %v", vec[82])
	}
	if math.Abs(vec[84]-70000) > 1e-6 {
		t.Errorf("Upstream speed = %v", vec[84])
	}
}

func TestAssemble_EmptyFlow(t *testing.T) {
	vec := Assemble(model.NewFlow(nil), Options{Throughput: true})
	if len(vec) != Width(Options{Throughput: true}) {
		t.Fatalf("Empty flow must still produce a full vector, got %d", len(vec))
	}
	for i := 0; i < 58; i++ {
		if vec[i] != 0 {
			t.Fatalf("Expected zero time bins, column %d = %v", i, vec[i])
		}
	}
	for i := 58; i < 78; i++ {
		if vec[i] != model.Sentinel {
			t.Fatalf("Expected sentinel size slots, column %d = %v", i, vec[i])
		}
	}
	want := []float64{0, 0, 0, 0, -1, -1, -1, -1}
	for i, w := range want {
		if vec[78+i] != w {
			t.Errorf("Column %d = %v, want %v", 78+i, vec[78+i], w)
		}
	}
}

func TestColumns(t *testing.T) {
	for _, opts := range []Options{{}, {Throughput: true}} {
		cols := Columns(opts)
		if len(cols) != Width(opts) {
			t.Errorf("Columns(%+v) has %d names, want %d", opts, len(cols), Width(opts))
		}
		seen := make(map[string]bool)
		for _, c := range cols {
			if seen[c] {
				t.Errorf("Duplicate column name %s", c)
			}
			seen[c] = true
		}
	}
	cols := Columns(Options{})
	if cols[0] != "f1_up_bin01" || cols[29] != "f1_down_bin01" || cols[82] != "f6_ratio" {
		t.Errorf("Unexpected column names: %s %s %s", cols[0], cols[29], cols[82])
	}
}
