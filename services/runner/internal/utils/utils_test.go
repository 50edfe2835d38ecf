package utils

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/models"
)

func evaluated(city, preset, key string) models.Evaluated {
	return models.Evaluated{
		Preset: preset,
		Evaluation: &workflow.Evaluation{
			Key:         key,
			City:        city,
			Combined:    planning.Outcome{Scenario: "combined", AreaKm2: 1.2, ReductionPct: 20},
			EvaluatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestBuildRunRows(t *testing.T) {
	rows := BuildRunRows([]models.Evaluated{evaluated("Lisbon", "Moderate", "k1")})
	require.Len(t, rows, 1)
	assert.Equal(t, "Lisbon/Moderate", rows[0].Key())
	assert.Equal(t, "k1", rows[0].InputKey)
	assert.Equal(t, 1.2, rows[0].Combined.AreaKm2)
	assert.Contains(t, Summary(rows[0]), "Lisbon/Moderate area=1.2000km2 reduction=20.0%")
}

func TestFilterChangedRuns(t *testing.T) {
	evals := []models.Evaluated{
		evaluated("Lisbon", "Moderate", "same"),
		evaluated("Lisbon", "High", "new-digest"),
		evaluated("Zurich", "Moderate", "first"),
	}
	rows := BuildRunRows(evals)
	last := map[string]string{
		"Lisbon/Moderate": "same",
		"Lisbon/High":     "old-digest",
	}

	changed := FilterChangedRuns(rows, last)
	keys := make([]string, 0, len(changed))
	for _, r := range changed {
		keys = append(keys, r.Key())
	}
	if diff := cmp.Diff([]string{"Lisbon/High", "Zurich/Moderate"}, keys); diff != "" {
		t.Errorf("changed runs mismatch (-want +got):\n%s", diff)
	}

	events := EventsFor(changed, evals)
	require.Len(t, events, 2)
	assert.Equal(t, "runner", events[0].Source)
	assert.Equal(t, "High", events[0].Preset)

	assert.Equal(t, []string{"Lisbon", "Zurich"}, Cities(rows))
}

func TestRankByPreset(t *testing.T) {
	withOutcomes := func(city, preset string, cost, reduction float64) models.Evaluated {
		e := evaluated(city, preset, city+preset)
		e.Evaluation.Outcomes = []planning.Outcome{
			{Scenario: "canopy", AreaKm2: 1, ReductionPct: reduction, CostMEUR: cost},
		}
		return e
	}

	ranked := RankByPreset([]models.Evaluated{
		withOutcomes("Lisbon", "High", 40, 10),
		withOutcomes("Zurich", "High", 10, 10),
		withOutcomes("Lisbon", "Moderate", 5, 5),
	})
	require.Len(t, ranked, 2)
	require.Len(t, ranked["High"], 2)
	assert.Equal(t, "Zurich", ranked["High"][0].City)
	assert.Equal(t, 1, ranked["High"][0].Rank)
	assert.Equal(t, "Lisbon", ranked["Moderate"][0].City)
}
