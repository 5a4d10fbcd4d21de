package cohort

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `subject_id, gender, dob`

func (r *repoPG) ListPatients(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(&p.SubjectID, &p.Gender, &p.DOB); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

const icuStayCols = `icustay_id, subject_id, hadm_id, intime, outtime`

func (r *repoPG) ListICUStays(ctx context.Context) ([]*ICUStay, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+icuStayCols+` FROM icustays`)
	if err != nil {
		return nil, fmt.Errorf("query icustays: %w", err)
	}
	defer rows.Close()

	var stays []*ICUStay
	for rows.Next() {
		s := &ICUStay{}
		if err := rows.Scan(&s.ICUStayID, &s.SubjectID, &s.HadmID, &s.InTime, &s.OutTime); err != nil {
			return nil, fmt.Errorf("scan icustay: %w", err)
		}
		stays = append(stays, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate icustays: %w", err)
	}
	return stays, nil
}

const admissionCols = `hadm_id, admittime, dischtime, admission_type, deathtime`

func (r *repoPG) ListAdmissions(ctx context.Context) ([]*Admission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+admissionCols+` FROM admissions`)
	if err != nil {
		return nil, fmt.Errorf("query admissions: %w", err)
	}
	defer rows.Close()

	var admissions []*Admission
	for rows.Next() {
		a := &Admission{}
		if err := rows.Scan(&a.HadmID, &a.AdmitTime, &a.DischTime, &a.AdmissionType, &a.DeathTime); err != nil {
			return nil, fmt.Errorf("scan admission: %w", err)
		}
		admissions = append(admissions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admissions: %w", err)
	}
	return admissions, nil
}
