package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/models"
)

// UpsertRuns inserts or refreshes the scheduled run of each city/preset.
func UpsertRuns(ctx context.Context, pool *pgxpool.Pool, runs []models.RunRow) error {
	if len(runs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO heat.scenario_runs (id, input_key, city, preset, source, canopy_pct, roof_pct, park_pct,
    baseline_area_km2, area_km2, reduction_pct, mean_hi_delta, cost_meur, co2_tonnes,
    outcomes, evaluated_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,'runner',$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
ON CONFLICT (city, preset) WHERE source = 'runner' DO UPDATE
SET input_key = EXCLUDED.input_key,
    canopy_pct = EXCLUDED.canopy_pct,
    roof_pct = EXCLUDED.roof_pct,
    park_pct = EXCLUDED.park_pct,
    baseline_area_km2 = EXCLUDED.baseline_area_km2,
    area_km2 = EXCLUDED.area_km2,
    reduction_pct = EXCLUDED.reduction_pct,
    mean_hi_delta = EXCLUDED.mean_hi_delta,
    cost_meur = EXCLUDED.cost_meur,
    co2_tonnes = EXCLUDED.co2_tonnes,
    outcomes = EXCLUDED.outcomes,
    evaluated_at = EXCLUDED.evaluated_at,
    updated_at = NOW()`

	for _, r := range runs {
		batch.Queue(query,
			r.ID, r.InputKey, r.City, r.Preset,
			r.Params.CanopyPct(), r.Params.RoofPct(), r.Params.ParkPct(),
			r.BaselineAreaKm2,
			r.Combined.AreaKm2, r.Combined.ReductionPct, r.Combined.MeanHIDelta,
			r.Combined.CostMEUR, r.Combined.CO2Tonnes,
			r.Outcomes, r.EvaluatedAt,
		)
	}

	res := pool.SendBatch(ctx, batch)
	defer res.Close()

	for range runs {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// FetchLastInputKeys loads the input digest of the stored scheduled run per
// city/preset, keyed like models.RunRow.Key.
func FetchLastInputKeys(ctx context.Context, pool *pgxpool.Pool, cities []string) (map[string]string, error) {
	result := make(map[string]string, len(cities))
	if len(cities) == 0 {
		return result, nil
	}

	rows, err := pool.Query(ctx, `
SELECT city, preset, input_key
FROM heat.scenario_runs
WHERE source = 'runner' AND city = ANY($1)`, cities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var city, preset, key string
		if err := rows.Scan(&city, &preset, &key); err != nil {
			return nil, err
		}
		result[models.RunRow{City: city, Preset: preset}.Key()] = key
	}

	return result, rows.Err()
}
