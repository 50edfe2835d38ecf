// Package report exports scenario outcomes as CSV.
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
)

// Header is the column order of every export.
var Header = []string{
	"run_id", "city", "preset", "scenario",
	"area_km2", "reduction_pct", "mean_hi_delta", "cost_meur", "co2_tonnes",
	"evaluated_at",
}

// Row is one outcome of one run.
type Row struct {
	RunID       string
	City        string
	Preset      string
	Outcome     planning.Outcome
	EvaluatedAt time.Time
}

// RowsFor flattens the outcomes of a run. Outcomes keep their order.
func RowsFor(runID, city, preset string, at time.Time, outcomes ...planning.Outcome) []Row {
	rows := make([]Row, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, Row{RunID: runID, City: city, Preset: preset, Outcome: o, EvaluatedAt: at})
	}
	return rows
}

// WriteCSV writes the header followed by one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r Row) record() []string {
	return []string{
		r.RunID,
		r.City,
		r.Preset,
		r.Outcome.Scenario,
		formatFloat(r.Outcome.AreaKm2),
		formatFloat(r.Outcome.ReductionPct),
		formatFloat(r.Outcome.MeanHIDelta),
		formatFloat(r.Outcome.CostMEUR),
		formatFloat(r.Outcome.CO2Tonnes),
		r.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
