package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohortstats/cohortstats/internal/domain/cohort"
	"github.com/cohortstats/cohortstats/internal/domain/features"
	"github.com/cohortstats/cohortstats/internal/domain/stats"
)

// -- Mock source repositories --

type mockCohortRepo struct {
	patients   []*cohort.Patient
	stays      []*cohort.ICUStay
	admissions []*cohort.Admission
}

func (m *mockCohortRepo) ListPatients(_ context.Context) ([]*cohort.Patient, error) {
	return m.patients, nil
}

func (m *mockCohortRepo) ListICUStays(_ context.Context) ([]*cohort.ICUStay, error) {
	return m.stays, nil
}

func (m *mockCohortRepo) ListAdmissions(_ context.Context) ([]*cohort.Admission, error) {
	return m.admissions, nil
}

type mockFeatureRepo struct {
	comorbidities []*features.ComorbidityRecord
	severities    []*features.SeverityScore
}

func (m *mockFeatureRepo) ListComorbidities(_ context.Context) ([]*features.ComorbidityRecord, error) {
	return m.comorbidities, nil
}

func (m *mockFeatureRepo) ListSeverityScores(_ context.Context) ([]*features.SeverityScore, error) {
	return m.severities, nil
}

// newTestPipeline builds a pipeline over a four-patient dataset: two elective,
// two non-elective admissions, one death.
func newTestPipeline() *Pipeline {
	in := time.Date(2100, 6, 1, 10, 0, 0, 0, time.UTC)
	death := in.Add(40 * time.Hour)

	crepo := &mockCohortRepo{}
	frepo := &mockFeatureRepo{}
	admTypes := []string{"ELECTIVE", "ELECTIVE", "EMERGENCY", "URGENT"}
	for i := int64(1); i <= 4; i++ {
		crepo.patients = append(crepo.patients, &cohort.Patient{
			SubjectID: i, Gender: []string{"F", "M"}[i%2], DOB: time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		adm := &cohort.Admission{
			HadmID:        i * 100,
			AdmitTime:     in.Add(-2 * time.Hour),
			DischTime:     in.Add(120 * time.Hour),
			AdmissionType: admTypes[i-1],
		}
		if i == 4 {
			adm.DeathTime = &death
		}
		crepo.admissions = append(crepo.admissions, adm)
		crepo.stays = append(crepo.stays, &cohort.ICUStay{
			ICUStayID: i * 10, SubjectID: i, HadmID: i * 100,
			InTime: in, OutTime: in.Add(48 * time.Hour),
		})

		score := float64(i)
		frepo.comorbidities = append(frepo.comorbidities, &features.ComorbidityRecord{
			HadmID: i * 100,
			Flags:  map[string]float64{"hypertension": 1, "obesity": float64(i % 2)},
		})
		frepo.severities = append(frepo.severities, &features.SeverityScore{
			ICUStayID: i * 10, Score: &score,
		})
	}

	logger := zerolog.Nop()
	return NewPipeline(
		cohort.NewService(crepo, logger),
		features.NewService(frepo, logger),
		logger,
	)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 report definitions, got %d", len(defs))
	}
	if defs[0].ID != "by-admission-type" || defs[1].ID != "by-gender" {
		t.Errorf("unexpected definition IDs: %s, %s", defs[0].ID, defs[1].ID)
	}
	for _, d := range defs {
		if d.Name == "" || d.Description == "" {
			t.Errorf("definition %s missing name or description", d.ID)
		}
	}
}

func TestFindDefinition(t *testing.T) {
	if FindDefinition("by-gender") == nil {
		t.Error("expected to find by-gender")
	}
	if FindDefinition("nonexistent") != nil {
		t.Error("expected nil for nonexistent report")
	}
}

func TestEvaluate_ByAdmissionType(t *testing.T) {
	p := newTestPipeline()

	rep, err := p.Evaluate(context.Background(), "by-admission-type")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.ReportID != "by-admission-type" {
		t.Errorf("expected report id by-admission-type, got %s", rep.ReportID)
	}
	if rep.CohortSize != 4 {
		t.Errorf("expected cohort size 4, got %d", rep.CohortSize)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 strata, got %d", len(rep.Rows))
	}
	if rep.Rows[0].Stratum != "Elective" || rep.Rows[1].Stratum != "Non-Elective" {
		t.Errorf("unexpected strata order: %s, %s", rep.Rows[0].Stratum, rep.Rows[1].Stratum)
	}

	nonElective := rep.Rows[1]
	if nonElective.PatientCount != 2 {
		t.Errorf("expected 2 non-elective patients, got %d", nonElective.PatientCount)
	}
	if float64(nonElective.PercentMortality) != 50 {
		t.Errorf("expected non-elective mortality 50, got %v", float64(nonElective.PercentMortality))
	}
}

func TestEvaluate_UnknownReport(t *testing.T) {
	p := newTestPipeline()
	if _, err := p.Evaluate(context.Background(), "by-unknown"); err == nil {
		t.Fatal("expected error for unknown report")
	}
}

func TestRenderCSV_Idempotent(t *testing.T) {
	p := newTestPipeline()

	var first, second bytes.Buffer
	for i, buf := range []*bytes.Buffer{&first, &second} {
		rep, err := p.Evaluate(context.Background(), "by-gender")
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if err := RenderCSV(buf, rep); err != nil {
			t.Fatalf("run %d: render failed: %v", i, err)
		}
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("expected byte-identical CSV output across reruns")
	}

	lines := strings.Split(strings.TrimSpace(first.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 gender rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "stratum,patient_count,") {
		t.Errorf("unexpected csv header: %s", lines[0])
	}
}

func TestRenderTable(t *testing.T) {
	p := newTestPipeline()
	rep, err := p.Evaluate(context.Background(), "by-admission-type")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := RenderTable(&buf, rep); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "stratum") || !strings.Contains(out, "Elective") {
		t.Errorf("table output missing expected content:\n%s", out)
	}
}

func TestRenderJSON_NaNAsNull(t *testing.T) {
	p := newTestPipeline()
	rep, err := p.Evaluate(context.Background(), "by-admission-type")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Replace the rows with a single-patient stratum so the stddev-based CIs
	// are NaN; the encoder must still emit valid JSON (null cells).
	sofa := 6.0
	single := &features.Row{
		Row:          &cohort.Row{SubjectID: 1, Gender: "F", AdmissionClass: cohort.ClassElective},
		LOSICUDays:   1.0,
		DiseaseCount: 2,
		SOFA:         &sofa,
	}
	rep.Rows = stats.Aggregate([]*features.Row{single}, stats.ByGender)

	var buf bytes.Buffer
	if err := RenderJSON(&buf, rep); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"lower": null`) {
		t.Error("expected NaN CI bound to render as null")
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	p := newTestPipeline()
	rep, err := p.Evaluate(context.Background(), "by-gender")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, "xml", rep); err == nil {
		t.Error("expected error for unknown format")
	}
	for _, f := range []string{"table", "csv", "json"} {
		buf.Reset()
		if err := Render(&buf, f, rep); err != nil {
			t.Errorf("format %s: unexpected error: %v", f, err)
		}
	}
}
