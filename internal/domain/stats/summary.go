package stats

import (
	"fmt"
	"sort"

	"github.com/cohortstats/cohortstats/internal/domain/features"
)

// Stratifier partitions feature rows into strata by a single attribute. The
// strata are exhaustive and mutually exclusive: every row lands in exactly one.
type Stratifier struct {
	ID          string
	Name        string
	Description string
	Key         func(*features.Row) string
}

// ByAdmissionType partitions into the Elective / Non-Elective classes.
var ByAdmissionType = Stratifier{
	ID:          "by-admission-type",
	Name:        "Cohort Statistics by Admission Type",
	Description: "Comorbidity burden, severity, length of stay, and mortality for elective vs non-elective admissions",
	Key:         func(r *features.Row) string { return r.AdmissionClass },
}

// ByGender partitions by the raw gender value. Gender is not normalized in the
// source, so an unexpected value forms its own stratum.
var ByGender = Stratifier{
	ID:          "by-gender",
	Name:        "Cohort Statistics by Gender",
	Description: "Comorbidity burden, severity, length of stay, and mortality per gender value present in the cohort",
	Key:         func(r *features.Row) string { return r.Gender },
}

// Stratifiers lists the available stratifications in a stable order.
func Stratifiers() []Stratifier {
	return []Stratifier{ByAdmissionType, ByGender}
}

// Lookup returns the stratifier with the given ID.
func Lookup(id string) (Stratifier, bool) {
	for _, s := range Stratifiers() {
		if s.ID == id {
			return s, true
		}
	}
	return Stratifier{}, false
}

// GroupSummary is one report row: the summary statistics for a single stratum.
type GroupSummary struct {
	Stratum               string   `json:"stratum"`
	PatientCount          int      `json:"patient_count"`
	PatientPercentage     Metric   `json:"patient_percentage"`
	MedianMorbidityCount  Metric   `json:"median_morbidity_count"`
	IQRLower              Metric   `json:"iqr_lower"`
	IQRUpper              Metric   `json:"iqr_upper"`
	IQR                   string   `json:"iqr"`
	PercentMultimorbidity Metric   `json:"percent_multimorbidity"`
	MultimorbidityCI      Interval `json:"multimorbidity_ci"`
	MeanSOFA              Metric   `json:"mean_sofa"`
	SOFACI                Interval `json:"sofa_ci"`
	MeanLOSICU            Metric   `json:"mean_los_icu"`
	LOSICUCI              Interval `json:"los_icu_ci"`
	MeanLOSHospital       Metric   `json:"mean_los_hospital"`
	LOSHospitalCI         Interval `json:"los_hospital_ci"`
	PercentMortality      Metric   `json:"percent_mortality"`
	MortalityCI           Interval `json:"mortality_ci"`
}

// Aggregate partitions the feature rows with the stratifier and computes one
// GroupSummary per stratum, ordered by stratum label ascending. Percentages
// are over the total across all strata; SOFA statistics count only non-null
// scores; length-of-stay statistics use the full stratum size.
func Aggregate(rows []*features.Row, strat Stratifier) []GroupSummary {
	byStratum := make(map[string][]*features.Row)
	for _, r := range rows {
		key := strat.Key(r)
		byStratum[key] = append(byStratum[key], r)
	}

	labels := make([]string, 0, len(byStratum))
	for label := range byStratum {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	total := len(rows)
	summaries := make([]GroupSummary, 0, len(labels))
	for _, label := range labels {
		summaries = append(summaries, summarize(label, byStratum[label], total))
	}
	return summaries
}

func summarize(label string, rows []*features.Row, total int) GroupSummary {
	n := len(rows)

	diseaseCounts := make([]float64, 0, n)
	losICU := make([]float64, 0, n)
	losHospital := make([]float64, 0, n)
	var sofa []float64
	multimorbid := 0
	died := 0
	for _, r := range rows {
		diseaseCounts = append(diseaseCounts, float64(r.DiseaseCount))
		losICU = append(losICU, r.LOSICUDays)
		losHospital = append(losHospital, r.LOSHospitalDays)
		if r.SOFA != nil {
			sofa = append(sofa, *r.SOFA)
		}
		if r.Multimorbid() {
			multimorbid++
		}
		if r.Died() {
			died++
		}
	}

	median := Percentile(diseaseCounts, 0.50)
	iqrLower := Percentile(diseaseCounts, 0.25)
	iqrUpper := Percentile(diseaseCounts, 0.75)

	pMulti := float64(multimorbid) / float64(n)
	pDied := float64(died) / float64(n)

	meanSOFA, sdSOFA := MeanStdDev(sofa)
	meanLOSICU, sdLOSICU := MeanStdDev(losICU)
	meanLOSHosp, sdLOSHosp := MeanStdDev(losHospital)

	return GroupSummary{
		Stratum:               label,
		PatientCount:          n,
		PatientPercentage:     Metric(100 * float64(n) / float64(total)),
		MedianMorbidityCount:  Metric(median),
		IQRLower:              Metric(iqrLower),
		IQRUpper:              Metric(iqrUpper),
		IQR:                   fmt.Sprintf("%.2f - %.2f", iqrLower, iqrUpper),
		PercentMultimorbidity: Metric(100 * pMulti),
		MultimorbidityCI:      WaldCI(pMulti, n),
		MeanSOFA:              Metric(meanSOFA),
		SOFACI:                NormalCI(meanSOFA, sdSOFA, len(sofa)),
		MeanLOSICU:            Metric(meanLOSICU),
		LOSICUCI:              NormalCI(meanLOSICU, sdLOSICU, n),
		MeanLOSHospital:       Metric(meanLOSHosp),
		LOSHospitalCI:         NormalCI(meanLOSHosp, sdLOSHosp, n),
		PercentMortality:      Metric(100 * pDied),
		MortalityCI:           WaldCI(pDied, n),
	}
}
