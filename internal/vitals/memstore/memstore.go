// Package memstore provides an in-memory implementation of vitals.Store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

// Store holds patients and vitals records in memory. Suitable for dev and
// testing. Copies cross the boundary in both directions.
type Store struct {
	mu       sync.RWMutex
	patients map[string]*patient.Patient // patient ID -> patient
	byNumber map[string]string           // hospital number -> patient ID
	records  map[string]*vitals.Record   // record ID -> record
	history  map[string][]string         // patient ID -> record IDs, insertion order
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{
		patients: make(map[string]*patient.Patient),
		byNumber: make(map[string]string),
		records:  make(map[string]*vitals.Record),
		history:  make(map[string][]string),
	}
}

// CreatePatient stores a copy of the patient.
func (s *Store) CreatePatient(_ context.Context, p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.patients[cp.ID] = &cp
	s.byNumber[cp.HospitalNumber] = cp.ID
	return nil
}

// GetPatient retrieves a patient by ID. Returns a copy.
func (s *Store) GetPatient(_ context.Context, id string) (*patient.Patient, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

// GetPatientByHospitalNumber retrieves a patient by hospital number.
func (s *Store) GetPatientByHospitalNumber(_ context.Context, hn string) (*patient.Patient, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[hn]
	if !ok {
		return nil, false, nil
	}
	cp := *s.patients[id]
	return &cp, true, nil
}

// ListPatients returns all patients ordered by hospital number.
func (s *Store) ListPatients(_ context.Context) ([]*patient.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*patient.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HospitalNumber < out[j].HospitalNumber })
	return out, nil
}

// SearchPatients matches the query case-insensitively against hospital
// numbers and full names.
func (s *Store) SearchPatients(_ context.Context, query string) ([]*patient.Patient, error) {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*patient.Patient
	for _, p := range s.patients {
		if strings.Contains(strings.ToLower(p.HospitalNumber), q) ||
			strings.Contains(strings.ToLower(p.FullName), q) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HospitalNumber < out[j].HospitalNumber })
	return out, nil
}

// SaveRecord stores the record and updates the patient's status and last
// visit under a single lock acquisition, so readers never observe one
// without the other.
func (s *Store) SaveRecord(_ context.Context, rec *vitals.Record, newStatus patient.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[rec.PatientID]
	if !ok {
		return vitals.ErrPatientNotFound
	}

	cp := *rec
	s.records[cp.ID] = &cp
	s.history[cp.PatientID] = append(s.history[cp.PatientID], cp.ID)

	p.Status = newStatus
	p.LastVisit = cp.RecordedAt
	return nil
}

// GetRecord retrieves a vitals record by ID. Returns a copy.
func (s *Store) GetRecord(_ context.Context, id string) (*vitals.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// ListPatientRecords returns the patient's records, most recent first.
func (s *Store) ListPatientRecords(_ context.Context, patientID string) ([]*vitals.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.history[patientID]
	out := make([]*vitals.Record, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		cp := *s.records[ids[i]]
		out = append(out, &cp)
	}
	return out, nil
}
