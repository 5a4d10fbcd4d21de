package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/cohortstats/cohortstats/internal/domain/stats"
)

// csvHeader is the column order of the tabular renderings. Confidence bounds
// are explicit (lower, upper) pairs; the IQR is a single formatted string.
var csvHeader = []string{
	"stratum",
	"patient_count",
	"patient_percentage",
	"median_morbidity_count",
	"iqr",
	"percent_multimorbidity",
	"multimorbidity_ci_lower",
	"multimorbidity_ci_upper",
	"mean_sofa",
	"sofa_ci_lower",
	"sofa_ci_upper",
	"mean_los_icu",
	"los_icu_ci_lower",
	"los_icu_ci_upper",
	"mean_los_hospital",
	"los_hospital_ci_lower",
	"los_hospital_ci_upper",
	"percent_mortality",
	"mortality_ci_lower",
	"mortality_ci_upper",
}

// formatMetric renders a metric with fixed precision; NaN cells print as "NaN".
func formatMetric(m stats.Metric) string {
	return strconv.FormatFloat(float64(m), 'f', 4, 64)
}

func summaryRecord(s stats.GroupSummary) []string {
	return []string{
		s.Stratum,
		strconv.Itoa(s.PatientCount),
		formatMetric(s.PatientPercentage),
		formatMetric(s.MedianMorbidityCount),
		s.IQR,
		formatMetric(s.PercentMultimorbidity),
		formatMetric(s.MultimorbidityCI.Lower),
		formatMetric(s.MultimorbidityCI.Upper),
		formatMetric(s.MeanSOFA),
		formatMetric(s.SOFACI.Lower),
		formatMetric(s.SOFACI.Upper),
		formatMetric(s.MeanLOSICU),
		formatMetric(s.LOSICUCI.Lower),
		formatMetric(s.LOSICUCI.Upper),
		formatMetric(s.MeanLOSHospital),
		formatMetric(s.LOSHospitalCI.Lower),
		formatMetric(s.LOSHospitalCI.Upper),
		formatMetric(s.PercentMortality),
		formatMetric(s.MortalityCI.Lower),
		formatMetric(s.MortalityCI.Upper),
	}
}

// RenderCSV writes the report rows as CSV. Only the statistical rows are
// written, so reruns against an unchanged source are byte-identical.
func RenderCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range rep.Rows {
		if err := cw.Write(summaryRecord(s)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable writes the report rows as an aligned text table.
func RenderTable(w io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range csvHeader {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, s := range rep.Rows {
		rec := summaryRecord(s)
		for i, cell := range rec {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// RenderJSON writes the full report envelope, including run metadata.
func RenderJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// Render dispatches on the output format name.
func Render(w io.Writer, format string, rep *Report) error {
	switch format {
	case "csv":
		return RenderCSV(w, rep)
	case "json":
		return RenderJSON(w, rep)
	case "table":
		return RenderTable(w, rep)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
