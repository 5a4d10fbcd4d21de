package cohort

import (
	"strings"
	"time"
)

// Inclusion bounds for age at ICU intake, in whole years.
const (
	MinAgeYears = 16
	MaxAgeYears = 95
)

// Admission-type strata. Every admission type that is not elective falls into
// the non-elective catch-all, including unexpected labels.
const (
	ClassElective    = "Elective"
	ClassNonElective = "Non-Elective"
)

// Patient maps to the patients table.
type Patient struct {
	SubjectID int64     `db:"subject_id" json:"subject_id"`
	Gender    string    `db:"gender" json:"gender"`
	DOB       time.Time `db:"dob" json:"dob"`
}

// ICUStay maps to the icustays table.
type ICUStay struct {
	ICUStayID int64     `db:"icustay_id" json:"icustay_id"`
	SubjectID int64     `db:"subject_id" json:"subject_id"`
	HadmID    int64     `db:"hadm_id" json:"hadm_id"`
	InTime    time.Time `db:"intime" json:"intime"`
	OutTime   time.Time `db:"outtime" json:"outtime"`
}

// Admission maps to the admissions table.
type Admission struct {
	HadmID        int64      `db:"hadm_id" json:"hadm_id"`
	AdmitTime     time.Time  `db:"admittime" json:"admittime"`
	DischTime     time.Time  `db:"dischtime" json:"dischtime"`
	AdmissionType string     `db:"admission_type" json:"admission_type"`
	DeathTime     *time.Time `db:"deathtime" json:"deathtime,omitempty"`
}

// Row is one qualifying patient: the first-ever ICU stay joined to its owning
// hospital admission, restricted to ages [16, 95] at ICU intake.
type Row struct {
	SubjectID      int64      `json:"subject_id"`
	ICUStayID      int64      `json:"icustay_id"`
	HadmID         int64      `json:"hadm_id"`
	Gender         string     `json:"gender"`
	AdmissionClass string     `json:"admission_class"`
	AgeYears       int        `json:"age_years"`
	InTime         time.Time  `json:"intime"`
	OutTime        time.Time  `json:"outtime"`
	AdmitTime      time.Time  `json:"admittime"`
	DischTime      time.Time  `json:"dischtime"`
	DeathTime      *time.Time `json:"deathtime,omitempty"`
}

// Died reports whether the admission carries a death timestamp.
func (r *Row) Died() bool {
	return r.DeathTime != nil
}

// ClassifyAdmission maps a raw admission-type label onto the two admission
// strata. Only an elective admission is "Elective"; emergency, urgent, and any
// malformed label land in the "Non-Elective" branch.
func ClassifyAdmission(admissionType string) string {
	if strings.EqualFold(strings.TrimSpace(admissionType), "ELECTIVE") {
		return ClassElective
	}
	return ClassNonElective
}

// AgeAtIntake returns floor(years between dob and intime): the year difference,
// minus one when the intake date falls before the birthday in that year.
func AgeAtIntake(dob, intime time.Time) int {
	years := intime.Year() - dob.Year()
	if intime.Month() < dob.Month() ||
		(intime.Month() == dob.Month() && intime.Day() < dob.Day()) {
		years--
	}
	return years
}
