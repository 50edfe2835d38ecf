package workflow

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
)

// Step is a stage of the explorer session.
type Step int

const (
	StepSelectCity Step = iota
	StepParameters
	StepCosts
	StepResults
)

func (s Step) String() string {
	switch s {
	case StepSelectCity:
		return "select_city"
	case StepParameters:
		return "parameters"
	case StepCosts:
		return "costs"
	case StepResults:
		return "results"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrNoCity       = errors.New("workflow: no city selected")
	ErrNoParameters = errors.New("workflow: parameters not set")
	ErrNoCosts      = errors.New("workflow: costs not set")
)

// State is an immutable snapshot of one explorer session. Every With method
// returns a new State and leaves the receiver unchanged.
type State struct {
	step         Step
	city         string
	params       heatindex.Params
	costLevels   map[heatindex.Intervention]planning.CostLevel
	carbonFactor float64
	evaluation   *Evaluation
	updatedAt    time.Time
}

// NewState starts a session at city selection.
func NewState() State {
	return State{step: StepSelectCity, carbonFactor: planning.CarbonFactorDefault, updatedAt: clock.Now().UTC()}
}

func (s State) Step() Step { return s.step }
func (s State) City() string { return s.city }
func (s State) Params() heatindex.Params { return s.params }
func (s State) CarbonFactor() float64 { return s.carbonFactor }
func (s State) Evaluation() *Evaluation { return s.evaluation }
func (s State) UpdatedAt() time.Time { return s.updatedAt }

// CostLevels returns a copy of the chosen cost levels.
func (s State) CostLevels() map[heatindex.Intervention]planning.CostLevel {
	return maps.Clone(s.costLevels)
}

// WithCity selects a city and resets later steps.
func (s State) WithCity(city string) State {
	return State{
		step:         StepParameters,
		city:         city,
		carbonFactor: s.carbonFactor,
		updatedAt:    clock.Now().UTC(),
	}
}

// WithParams records intervention percentages.
func (s State) WithParams(p heatindex.Params) (State, error) {
	if s.step < StepParameters {
		return s, ErrNoCity
	}
	next := s
	next.params = p
	next.step = StepCosts
	next.evaluation = nil
	next.updatedAt = clock.Now().UTC()
	return next, nil
}

// WithCosts records cost levels and the carbon factor (kg CO2/m²/yr).
func (s State) WithCosts(levels map[heatindex.Intervention]planning.CostLevel, carbonFactor float64) (State, error) {
	if s.step < StepCosts {
		return s, ErrNoParameters
	}
	if _, err := planning.SequestrationFactor(carbonFactor); err != nil {
		return s, err
	}
	next := s
	next.costLevels = maps.Clone(levels)
	next.carbonFactor = carbonFactor
	next.step = StepResults
	next.evaluation = nil
	next.updatedAt = clock.Now().UTC()
	return next, nil
}

// Request builds the evaluation request for the session's choices. The
// threshold is taken as given, zero included.
func (s State) Request(in Inputs, threshold float64) (Request, error) {
	if s.step < StepResults {
		return Request{}, ErrNoCosts
	}
	return Request{
		City:         s.city,
		Inputs:       in,
		Params:       s.params,
		CostLevels:   maps.Clone(s.costLevels),
		CarbonFactor: s.carbonFactor,
		Threshold:    &threshold,
	}, nil
}

// WithEvaluation attaches a finished evaluation.
func (s State) WithEvaluation(ev *Evaluation) State {
	next := s
	next.evaluation = ev
	next.updatedAt = clock.Now().UTC()
	return next
}
