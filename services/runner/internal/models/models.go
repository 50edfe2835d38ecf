package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

// Evaluated pairs a finished evaluation with the preset that produced it.
type Evaluated struct {
	Preset     string
	Evaluation *workflow.Evaluation
}

// RunRow captures a normalized scenario run for DB operations.
type RunRow struct {
	ID              uuid.UUID
	InputKey        string
	City            string
	Preset          string
	Params          heatindex.Params
	BaselineAreaKm2 float64
	Combined        planning.Outcome
	Outcomes        []planning.Outcome
	EvaluatedAt     time.Time
}

// Key identifies a scheduled run slot.
func (r RunRow) Key() string {
	return r.City + "/" + r.Preset
}
