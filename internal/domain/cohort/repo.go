package cohort

import "context"

// Repository reads the raw source tables. All reads are whole-table scans: the
// pipeline is a one-shot batch computation over the full dataset.
type Repository interface {
	ListPatients(ctx context.Context) ([]*Patient, error)
	ListICUStays(ctx context.Context) ([]*ICUStay, error)
	ListAdmissions(ctx context.Context) ([]*Admission, error)
}
