package db

import (
	"context"
	"strconv"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
)

const insertFeedbackSQL = `
    INSERT INTO heat.feedback (id, user_id, city, category, comment, name, profession, company, nationality, geometry, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`

// InsertFeedback stores one stakeholder proposal.
func (s *Store) InsertFeedback(ctx context.Context, fb geo.Feedback) error {
	_, err := s.pool.Exec(ctx, insertFeedbackSQL,
		fb.ID,
		fb.Submitter.UserID,
		fb.City,
		string(fb.Category),
		fb.Comment,
		fb.Submitter.Name,
		fb.Submitter.Profession,
		fb.Submitter.Company,
		fb.Submitter.Nationality,
		fb.Geometry,
		fb.CreatedAt,
	)
	return err
}

// ListFeedback returns the newest proposals, optionally for one city.
func (s *Store) ListFeedback(ctx context.Context, city string, limit int) ([]geo.Feedback, error) {
	query := `
    SELECT id, user_id, city, category, comment, name, profession, company, nationality, geometry, created_at
    FROM heat.feedback`
	args := []any{}
	if city != "" {
		query += " WHERE city = $1"
		args = append(args, city)
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]geo.Feedback, 0)
	for rows.Next() {
		var fb geo.Feedback
		var category string
		if err := rows.Scan(
			&fb.ID,
			&fb.Submitter.UserID,
			&fb.City,
			&category,
			&fb.Comment,
			&fb.Submitter.Name,
			&fb.Submitter.Profession,
			&fb.Submitter.Company,
			&fb.Submitter.Nationality,
			&fb.Geometry,
			&fb.CreatedAt,
		); err != nil {
			return nil, err
		}
		fb.Category = heatindex.Intervention(category)
		items = append(items, fb)
	}
	return items, rows.Err()
}
