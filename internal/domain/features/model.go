package features

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cohortstats/cohortstats/internal/domain/cohort"
)

// SecondsPerDay converts stay durations to fractional days.
const SecondsPerDay = 86400

// ComorbidityRecord is one row of the elixhauser table: the per-admission
// comorbidity flags keyed by category name. A flag missing from the map counts
// as 0, matching NULL-as-zero semantics in the source.
type ComorbidityRecord struct {
	HadmID int64              `json:"hadm_id"`
	Flags  map[string]float64 `json:"flags"`
}

// DiseaseCount is the reduction over all flag categories.
func (c *ComorbidityRecord) DiseaseCount() int {
	vals := make([]float64, 0, len(Categories))
	for _, cat := range Categories {
		vals = append(vals, c.Flags[cat])
	}
	return int(floats.Sum(vals))
}

// SeverityScore is one row of the sofa table. Score is nullable: a stay can
// have a severity record without a computed score.
type SeverityScore struct {
	ICUStayID int64    `json:"icustay_id"`
	Score     *float64 `json:"sofa,omitempty"`
}

// Row is a cohort row extended with the derived per-patient features.
type Row struct {
	*cohort.Row

	LOSICUDays      float64  `json:"los_icu_days"`
	LOSHospitalDays float64  `json:"los_hospital_days"`
	DiseaseCount    int      `json:"disease_count"`
	SOFA            *float64 `json:"sofa,omitempty"`
}

// Multimorbid reports whether the patient carries more than one comorbidity.
func (r *Row) Multimorbid() bool {
	return r.DiseaseCount > 1
}
