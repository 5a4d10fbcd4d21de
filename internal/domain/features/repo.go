package features

import "context"

// Repository reads the per-admission comorbidity flags and per-stay severity
// scores.
type Repository interface {
	ListComorbidities(ctx context.Context) ([]*ComorbidityRecord, error)
	ListSeverityScores(ctx context.Context) ([]*SeverityScore, error)
}
