package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ScenarioRun is one persisted evaluation. Combined holds the headline
// figures; Outcomes holds the per-intervention breakdown.
type ScenarioRun struct {
	ID              uuid.UUID          `json:"id"`
	InputKey        string             `json:"input_key"`
	City            string             `json:"city"`
	Preset          string             `json:"preset"`
	Source          string             `json:"source"`
	CanopyPct       float64            `json:"canopy_pct"`
	RoofPct         float64            `json:"roof_pct"`
	ParkPct         float64            `json:"park_pct"`
	BaselineAreaKm2 float64            `json:"baseline_area_km2"`
	Combined        planning.Outcome   `json:"combined"`
	Outcomes        []planning.Outcome `json:"outcomes"`
	EvaluatedAt     time.Time          `json:"evaluated_at"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RunQuery filters the run listing.
type RunQuery struct {
	City   string
	Preset string
	Limit  int
	Offset int
}

// RunsPage is one page of runs plus the total matching count.
type RunsPage struct {
	Runs       []ScenarioRun `json:"runs"`
	TotalCount int           `json:"total_count"`
}

const runColumns = `id, input_key, city, preset, source, canopy_pct, roof_pct, park_pct,
       baseline_area_km2, area_km2, reduction_pct, mean_hi_delta, cost_meur, co2_tonnes,
       outcomes, evaluated_at, created_at`

const insertRunSQL = `
    INSERT INTO heat.scenario_runs (id, input_key, city, preset, source, canopy_pct, roof_pct, park_pct,
        baseline_area_km2, area_km2, reduction_pct, mean_hi_delta, cost_meur, co2_tonnes,
        outcomes, evaluated_at, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW())
`

// InsertRun stores an evaluation triggered through the API.
func (s *Store) InsertRun(ctx context.Context, r ScenarioRun) error {
	_, err := s.pool.Exec(ctx, insertRunSQL,
		r.ID, r.InputKey, r.City, r.Preset, r.Source,
		r.CanopyPct, r.RoofPct, r.ParkPct,
		r.BaselineAreaKm2,
		r.Combined.AreaKm2, r.Combined.ReductionPct, r.Combined.MeanHIDelta,
		r.Combined.CostMEUR, r.Combined.CO2Tonnes,
		r.Outcomes, r.EvaluatedAt,
	)
	return err
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, q RunQuery) (*RunsPage, error) {
	conditions := []string{}
	args := []any{}

	if q.City != "" {
		conditions = append(conditions, "city = $"+strconv.Itoa(len(args)+1))
		args = append(args, q.City)
	}
	if q.Preset != "" {
		conditions = append(conditions, "preset = $"+strconv.Itoa(len(args)+1))
		args = append(args, q.Preset)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM heat.scenario_runs "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, err
	}

	limitPos := len(args) + 1
	offsetPos := len(args) + 2
	args = append(args, q.Limit, q.Offset)

	query := strings.Builder{}
	query.WriteString("SELECT " + runColumns + " FROM heat.scenario_runs ")
	query.WriteString(whereClause + " ")
	query.WriteString("ORDER BY evaluated_at DESC, id ")
	query.WriteString("LIMIT $" + strconv.Itoa(limitPos) + " OFFSET $" + strconv.Itoa(offsetPos))

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ScenarioRun, 0, q.Limit)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &RunsPage{Runs: runs, TotalCount: totalCount}, nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*ScenarioRun, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+runColumns+" FROM heat.scenario_runs WHERE id = $1", id)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRun(row pgx.Row) (ScenarioRun, error) {
	var r ScenarioRun
	err := row.Scan(
		&r.ID,
		&r.InputKey,
		&r.City,
		&r.Preset,
		&r.Source,
		&r.CanopyPct,
		&r.RoofPct,
		&r.ParkPct,
		&r.BaselineAreaKm2,
		&r.Combined.AreaKm2,
		&r.Combined.ReductionPct,
		&r.Combined.MeanHIDelta,
		&r.Combined.CostMEUR,
		&r.Combined.CO2Tonnes,
		&r.Outcomes,
		&r.EvaluatedAt,
		&r.CreatedAt,
	)
	r.Combined.Scenario = "combined"
	return r, err
}
