package vitals

import (
	"context"

	"github.com/wardlabs/vitalis/internal/patient"
)

// Store is the persistence interface for patients and vitals records.
// Lookups report absence as (nil, false, nil) rather than an error.
type Store interface {
	CreatePatient(ctx context.Context, p *patient.Patient) error
	GetPatient(ctx context.Context, id string) (*patient.Patient, bool, error)
	GetPatientByHospitalNumber(ctx context.Context, hospitalNumber string) (*patient.Patient, bool, error)
	ListPatients(ctx context.Context) ([]*patient.Patient, error)
	SearchPatients(ctx context.Context, query string) ([]*patient.Patient, error)

	// SaveRecord persists a vitals record together with the owning patient's
	// status and last-visit update as one atomic unit. Partial application
	// (record without status update, or vice versa) is a correctness bug.
	SaveRecord(ctx context.Context, rec *Record, newStatus patient.Status) error

	GetRecord(ctx context.Context, id string) (*Record, bool, error)

	// ListPatientRecords returns a patient's records, most recent first.
	ListPatientRecords(ctx context.Context, patientID string) ([]*Record, error)
}
