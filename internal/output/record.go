// Package output holds the writers that persist or publish feature records.
// Each writer registers itself with the factory under its config type name.
package output

import (
	"fmt"
	"strconv"

	core "FlowSpectra/internal/core/model"

	"google.golang.org/protobuf/types/known/structpb"
)

// RecordMessage is the document form of a feature record used by the
// message-bus writers and the APIs.
type RecordMessage struct {
	RunID   string    `json:"run_id,omitempty"`
	Source  string    `json:"source"`
	Columns []string  `json:"columns,omitempty"`
	Values  []float64 `json:"values"`
	FlowLen int       `json:"flow_len"`
	Skipped int       `json:"skipped"`
}

// NewRecordMessage copies rec into its document form.
func NewRecordMessage(rec *core.FeatureRecord, columns []string) RecordMessage {
	values := make([]float64, len(rec.Vector))
	copy(values, rec.Vector)
	return RecordMessage{
		RunID:   rec.RunID,
		Source:  rec.Source,
		Columns: columns,
		Values:  values,
		FlowLen: rec.FlowLen,
		Skipped: rec.SkippedFrames,
	}
}

// Struct converts the message into a protobuf Struct.
func (m RecordMessage) Struct() (*structpb.Struct, error) {
	columns := make([]interface{}, len(m.Columns))
	for i, c := range m.Columns {
		columns[i] = c
	}
	values := make([]interface{}, len(m.Values))
	for i, v := range m.Values {
		values[i] = v
	}

	fields := map[string]interface{}{
		"source":   m.Source,
		"columns":  columns,
		"values":   values,
		"flow_len": m.FlowLen,
		"skipped":  m.Skipped,
	}
	if m.RunID != "" {
		fields["run_id"] = m.RunID
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct for %s: %w", m.Source, err)
	}
	return s, nil
}

// FormatValue renders a feature value with the fewest digits that parse back
// to the same float64.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
