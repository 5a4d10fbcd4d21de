package features

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cohortstats/cohortstats/internal/domain/cohort"
)

// Service derives per-patient features: length of stay in fractional days,
// disease count, and the SOFA severity score join.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Derive joins each cohort row to its comorbidity record (by hospital
// admission) and severity record (by ICU stay). Joins are inner: a cohort row
// without a match on either side is dropped from the feature set, which
// shrinks every downstream denominator. The drop counts are logged so the
// shrink is visible rather than silent.
func (s *Service) Derive(ctx context.Context, cohortRows []*cohort.Row) ([]*Row, error) {
	comorbidities, err := s.repo.ListComorbidities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comorbidities: %w", err)
	}
	severities, err := s.repo.ListSeverityScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("load severity scores: %w", err)
	}

	comorbidityByHadm := make(map[int64]*ComorbidityRecord, len(comorbidities))
	for _, c := range comorbidities {
		comorbidityByHadm[c.HadmID] = c
	}
	severityByStay := make(map[int64]*SeverityScore, len(severities))
	for _, sc := range severities {
		severityByStay[sc.ICUStayID] = sc
	}

	var (
		rows          []*Row
		noComorbidity int
		noSeverity    int
	)

	for _, cr := range cohortRows {
		c, ok := comorbidityByHadm[cr.HadmID]
		if !ok {
			noComorbidity++
			continue
		}
		sev, ok := severityByStay[cr.ICUStayID]
		if !ok {
			noSeverity++
			continue
		}

		rows = append(rows, &Row{
			Row:             cr,
			LOSICUDays:      cr.OutTime.Sub(cr.InTime).Seconds() / SecondsPerDay,
			LOSHospitalDays: cr.DischTime.Sub(cr.AdmitTime).Seconds() / SecondsPerDay,
			DiseaseCount:    c.DiseaseCount(),
			SOFA:            sev.Score,
		})
	}

	s.logger.Info().
		Int("feature_rows", len(rows)).
		Int("dropped_no_comorbidity", noComorbidity).
		Int("dropped_no_severity", noSeverity).
		Msg("features derived")

	return rows, nil
}
