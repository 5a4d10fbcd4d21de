package cohort

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Service performs cohort selection: one row per patient whose first-ever ICU
// stay falls inside the study age range.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Select loads the source tables and returns the cohort rows, ordered by
// subject ID so repeated runs against an unchanged source produce identical
// output.
//
// First-stay selection groups stays per patient and takes the earliest intime.
// When two stays tie on the minimum intime the stay with the lowest ID wins
// and a warning is logged naming the patient; the tie is a data anomaly, not
// something this pipeline can resolve.
func (s *Service) Select(ctx context.Context) ([]*Row, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	stays, err := s.repo.ListICUStays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load icu stays: %w", err)
	}
	admissions, err := s.repo.ListAdmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}

	patientByID := make(map[int64]*Patient, len(patients))
	for _, p := range patients {
		patientByID[p.SubjectID] = p
	}
	admissionByID := make(map[int64]*Admission, len(admissions))
	for _, a := range admissions {
		admissionByID[a.HadmID] = a
	}

	staysByPatient := make(map[int64][]*ICUStay)
	for _, st := range stays {
		staysByPatient[st.SubjectID] = append(staysByPatient[st.SubjectID], st)
	}

	var (
		rows        []*Row
		ageExcluded int
		noAdmission int
	)

	for subjectID, patientStays := range staysByPatient {
		p, ok := patientByID[subjectID]
		if !ok {
			continue
		}

		sort.Slice(patientStays, func(i, j int) bool {
			if !patientStays[i].InTime.Equal(patientStays[j].InTime) {
				return patientStays[i].InTime.Before(patientStays[j].InTime)
			}
			return patientStays[i].ICUStayID < patientStays[j].ICUStayID
		})
		first := patientStays[0]
		if len(patientStays) > 1 && patientStays[1].InTime.Equal(first.InTime) {
			s.logger.Warn().
				Int64("subject_id", subjectID).
				Int64("icustay_id", first.ICUStayID).
				Msg("tied first-stay intime, picking lowest stay id")
		}

		age := AgeAtIntake(p.DOB, first.InTime)
		if age < MinAgeYears || age > MaxAgeYears {
			ageExcluded++
			continue
		}

		adm, ok := admissionByID[first.HadmID]
		if !ok {
			noAdmission++
			continue
		}

		rows = append(rows, &Row{
			SubjectID:      subjectID,
			ICUStayID:      first.ICUStayID,
			HadmID:         first.HadmID,
			Gender:         p.Gender,
			AdmissionClass: ClassifyAdmission(adm.AdmissionType),
			AgeYears:       age,
			InTime:         first.InTime,
			OutTime:        first.OutTime,
			AdmitTime:      adm.AdmitTime,
			DischTime:      adm.DischTime,
			DeathTime:      adm.DeathTime,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].SubjectID < rows[j].SubjectID })

	s.logger.Info().
		Int("cohort_size", len(rows)).
		Int("age_excluded", ageExcluded).
		Int("missing_admission", noAdmission).
		Msg("cohort selected")

	return rows, nil
}
