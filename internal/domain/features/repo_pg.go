package features

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ListComorbidities(ctx context.Context) ([]*ComorbidityRecord, error) {
	cols := "hadm_id, " + strings.Join(Categories, ", ")
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM elixhauser`)
	if err != nil {
		return nil, fmt.Errorf("query elixhauser: %w", err)
	}
	defer rows.Close()

	var records []*ComorbidityRecord
	for rows.Next() {
		rec := &ComorbidityRecord{Flags: make(map[string]float64, len(Categories))}

		flagVals := make([]*float64, len(Categories))
		dest := make([]interface{}, 0, len(Categories)+1)
		dest = append(dest, &rec.HadmID)
		for i := range flagVals {
			dest = append(dest, &flagVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan elixhauser row: %w", err)
		}

		// NULL flags stay out of the map and count as 0.
		for i, cat := range Categories {
			if flagVals[i] != nil {
				rec.Flags[cat] = *flagVals[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elixhauser: %w", err)
	}
	return records, nil
}

func (r *repoPG) ListSeverityScores(ctx context.Context) ([]*SeverityScore, error) {
	rows, err := r.pool.Query(ctx, `SELECT icustay_id, sofa FROM sofa`)
	if err != nil {
		return nil, fmt.Errorf("query sofa: %w", err)
	}
	defer rows.Close()

	var scores []*SeverityScore
	for rows.Next() {
		s := &SeverityScore{}
		if err := rows.Scan(&s.ICUStayID, &s.Score); err != nil {
			return nil, fmt.Errorf("scan sofa row: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sofa: %w", err)
	}
	return scores, nil
}
