package utils

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/publish"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/models"
)

// BuildRunRows converts evaluations into database-ready run rows.
func BuildRunRows(evals []models.Evaluated) []models.RunRow {
	rows := make([]models.RunRow, 0, len(evals))
	for _, e := range evals {
		ev := e.Evaluation
		rows = append(rows, models.RunRow{
			ID:              uuid.New(),
			InputKey:        ev.Key,
			City:            ev.City,
			Preset:          e.Preset,
			Params:          ev.Params,
			BaselineAreaKm2: ev.BaselineAreaKm2,
			Combined:        ev.Combined,
			Outcomes:        ev.Outcomes,
			EvaluatedAt:     ev.EvaluatedAt,
		})
	}
	return rows
}

// Cities extracts the distinct city names of run rows, in order.
func Cities(rows []models.RunRow) []string {
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.City] {
			seen[row.City] = true
			out = append(out, row.City)
		}
	}
	return out
}

// FilterChangedRuns selects rows whose inputs differ from the stored run.
func FilterChangedRuns(rows []models.RunRow, last map[string]string) []models.RunRow {
	out := make([]models.RunRow, 0, len(rows))
	for _, row := range rows {
		if prev, ok := last[row.Key()]; ok && prev == row.InputKey {
			continue
		}
		out = append(out, row)
	}
	return out
}

// EventsFor builds the published events of the changed runs.
func EventsFor(changed []models.RunRow, evals []models.Evaluated) []publish.ScenarioEvent {
	keep := make(map[string]bool, len(changed))
	for _, row := range changed {
		keep[row.InputKey] = true
	}
	events := make([]publish.ScenarioEvent, 0, len(changed))
	for _, e := range evals {
		if keep[e.Evaluation.Key] {
			events = append(events, publish.NewScenarioEvent("runner", e.Preset, e.Evaluation))
		}
	}
	return events
}

// RankByPreset compares cities within each preset by the per-intervention
// outcomes of their evaluations.
func RankByPreset(evals []models.Evaluated) map[string][]planning.CityRanking {
	byPreset := make(map[string][]planning.CityEvaluation)
	for _, e := range evals {
		byPreset[e.Preset] = append(byPreset[e.Preset], planning.CityEvaluation{
			City:            e.Evaluation.City,
			BaselineAreaKm2: e.Evaluation.BaselineAreaKm2,
			Outcomes:        e.Evaluation.Outcomes,
		})
	}
	out := make(map[string][]planning.CityRanking, len(byPreset))
	for preset, cities := range byPreset {
		out[preset] = planning.RankCities(cities)
	}
	return out
}

// Summary prints a run row for logging.
func Summary(row models.RunRow) string {
	return fmt.Sprintf("%s area=%.4fkm2 reduction=%.1f%% cost=%.2fMEUR co2=%.0ft",
		row.Key(), row.Combined.AreaKm2, row.Combined.ReductionPct, row.Combined.CostMEUR, row.Combined.CO2Tonnes)
}
