package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

func testPatient(id, hn, name string) *patient.Patient {
	return &patient.Patient{
		ID:             id,
		HospitalNumber: hn,
		FullName:       name,
		Status:         patient.StatusStable,
	}
}

func testRecord(id, patientID string, at time.Time) *vitals.Record {
	return &vitals.Record{
		ID:         id,
		PatientID:  patientID,
		NEWS2Score: 2,
		RecordedAt: at,
	}
}

func TestStore_CreateAndGetPatient(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	if err := s.CreatePatient(ctx, testPatient("p-1", "P001", "Jane Doe")); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	got, ok, err := s.GetPatient(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if !ok {
		t.Fatal("expected patient to be found")
	}
	if got.HospitalNumber != "P001" {
		t.Errorf("HospitalNumber = %q, want %q", got.HospitalNumber, "P001")
	}

	got, ok, err = s.GetPatientByHospitalNumber(ctx, "P001")
	if err != nil {
		t.Fatalf("GetPatientByHospitalNumber: %v", err)
	}
	if !ok {
		t.Fatal("expected patient to be found by hospital number")
	}
	if got.ID != "p-1" {
		t.Errorf("ID = %q, want %q", got.ID, "p-1")
	}
}

func TestStore_GetPatientMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.GetPatient(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing ID")
	}

	_, ok, err = s.GetPatientByHospitalNumber(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetPatientByHospitalNumber: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing hospital number")
	}
}

func TestStore_GetPatientReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.CreatePatient(ctx, testPatient("p-1", "P001", "Jane Doe"))

	got, _, _ := s.GetPatient(ctx, "p-1")
	got.FullName = "mutated"

	again, _, _ := s.GetPatient(ctx, "p-1")
	if again.FullName != "Jane Doe" {
		t.Errorf("FullName = %q, caller mutation leaked into store", again.FullName)
	}
}

func TestStore_ListPatientsOrdered(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.CreatePatient(ctx, testPatient("p-2", "P002", "Bob"))
	_ = s.CreatePatient(ctx, testPatient("p-1", "P001", "Alice"))
	_ = s.CreatePatient(ctx, testPatient("p-3", "P003", "Carol"))

	got, err := s.ListPatients(ctx)
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("patients = %d, want 3", len(got))
	}
	for i, want := range []string{"P001", "P002", "P003"} {
		if got[i].HospitalNumber != want {
			t.Errorf("got[%d].HospitalNumber = %q, want %q", i, got[i].HospitalNumber, want)
		}
	}
}

func TestStore_SearchPatients(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.CreatePatient(ctx, testPatient("p-1", "P001", "Jane Doe"))
	_ = s.CreatePatient(ctx, testPatient("p-2", "P002", "John Smith"))

	tests := []struct {
		query string
		want  int
	}{
		{"jane", 1},
		{"DOE", 1},
		{"p00", 2},
		{"smith", 1},
		{"nobody", 0},
	}
	for _, tt := range tests {
		got, err := s.SearchPatients(ctx, tt.query)
		if err != nil {
			t.Fatalf("SearchPatients(%q): %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("SearchPatients(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestStore_SaveRecordUpdatesPatient(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.CreatePatient(ctx, testPatient("p-1", "P001", "Jane Doe"))

	at := time.Now().UTC()
	if err := s.SaveRecord(ctx, testRecord("r-1", "p-1", at), patient.StatusAlert); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	rec, ok, err := s.GetRecord(ctx, "r-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}
	if rec.PatientID != "p-1" {
		t.Errorf("PatientID = %q, want %q", rec.PatientID, "p-1")
	}

	p, _, _ := s.GetPatient(ctx, "p-1")
	if p.Status != patient.StatusAlert {
		t.Errorf("patient status = %q, want %q", p.Status, patient.StatusAlert)
	}
	if !p.LastVisit.Equal(at) {
		t.Errorf("LastVisit = %v, want %v", p.LastVisit, at)
	}
}

func TestStore_SaveRecordMissingPatient(t *testing.T) {
	t.Parallel()

	s := New()
	err := s.SaveRecord(context.Background(), testRecord("r-1", "missing", time.Now()), patient.StatusStable)
	if !errors.Is(err, vitals.ErrPatientNotFound) {
		t.Errorf("err = %v, want ErrPatientNotFound", err)
	}
}

func TestStore_GetRecordMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.GetRecord(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing record")
	}
}

func TestStore_ListPatientRecordsMostRecentFirst(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.CreatePatient(ctx, testPatient("p-1", "P001", "Jane Doe"))

	base := time.Now().UTC()
	for i := range 3 {
		rec := testRecord(fmt.Sprintf("r-%d", i), "p-1", base.Add(time.Duration(i)*time.Minute))
		if err := s.SaveRecord(ctx, rec, patient.StatusStable); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	got, err := s.ListPatientRecords(ctx, "p-1")
	if err != nil {
		t.Fatalf("ListPatientRecords: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("records = %d, want 3", len(got))
	}
	for i, want := range []string{"r-2", "r-1", "r-0"} {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestStore_ListPatientRecordsEmpty(t *testing.T) {
	t.Parallel()

	s := New()
	got, err := s.ListPatientRecords(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("ListPatientRecords: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("records = %d, want 0", len(got))
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	const n = 100

	for i := range n {
		_ = s.CreatePatient(ctx, testPatient(fmt.Sprintf("p-%d", i), fmt.Sprintf("P%03d", i), "Test"))
	}

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := range n {
		pid := fmt.Sprintf("p-%d", i)
		rid := fmt.Sprintf("r-%d", i)

		go func() {
			defer wg.Done()
			_ = s.SaveRecord(ctx, testRecord(rid, pid, time.Now()), patient.StatusMonitoring)
		}()

		go func() {
			defer wg.Done()
			_, _, _ = s.GetPatient(ctx, pid)
			_, _ = s.ListPatientRecords(ctx, pid)
		}()
	}

	wg.Wait()
}
