package vitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
)

var (
	// ErrPatientNotFound means the referenced patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrDuplicateHospitalNumber means registration reused a hospital number.
	ErrDuplicateHospitalNumber = errors.New("hospital number already exists")
)

// Notifier delivers best-effort notifications for high-risk recordings.
type Notifier interface {
	Send(ctx context.Context, p *patient.Patient, rec *Record) error
}

// Service is the business boundary for patient and vitals operations.
type Service struct {
	store    Store
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a vitals service. metrics and notifier may be nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// RegisterPatient stores a new patient. The ID is assigned here; the status
// defaults to stable.
func (s *Service) RegisterPatient(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	if _, ok, err := s.store.GetPatientByHospitalNumber(ctx, p.HospitalNumber); err != nil {
		return nil, fmt.Errorf("check hospital number: %w", err)
	} else if ok {
		return nil, ErrDuplicateHospitalNumber
	}

	cp := *p
	cp.ID = ulid.Make().String()
	if cp.Status == "" {
		cp.Status = patient.StatusStable
	}
	if cp.LastVisit.IsZero() {
		cp.LastVisit = time.Now().UTC()
	}

	if err := s.store.CreatePatient(ctx, &cp); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.logger.Info(ctx, "patient registered",
		"patient_id", cp.ID,
		"hospital_number", cp.HospitalNumber,
	)
	return &cp, nil
}

// GetPatient retrieves a patient by ID.
func (s *Service) GetPatient(ctx context.Context, id string) (*patient.Patient, bool, error) {
	return s.store.GetPatient(ctx, id)
}

// ListPatients returns all patients.
func (s *Service) ListPatients(ctx context.Context) ([]*patient.Patient, error) {
	return s.store.ListPatients(ctx)
}

// SearchPatients matches the query against hospital numbers and names.
func (s *Service) SearchPatients(ctx context.Context, query string) ([]*patient.Patient, error) {
	return s.store.SearchPatients(ctx, query)
}

// Record executes the vitals recording workflow: resolve the patient, score
// the reading, interpret it, and persist the record together with the patient
// status update as one atomic unit. A failed generative call never blocks or
// degrades the recording; only ErrPatientNotFound and persistence errors
// cross this boundary.
func (s *Service) Record(ctx context.Context, patientID string, r Reading) (*Record, error) {
	start := time.Now()

	p, ok, err := s.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	score := news2.Score(r.Observations())
	alert := news2.Classify(score)
	interp := s.engine.Interpret(ctx, r, p, score, alert)

	rec := &Record{
		ID:                   ulid.Make().String(),
		PatientID:            p.ID,
		Reading:              r,
		NEWS2Score:           score,
		Alert:                alert,
		Interpretation:       interp.Text,
		InterpretationSource: interp.Source,
		RecordedAt:           time.Now().UTC(),
	}

	if err := s.store.SaveRecord(ctx, rec, statusFor(alert.Level)); err != nil {
		return nil, fmt.Errorf("save vitals record: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordingsTotal.WithLabelValues(string(alert.Level)).Inc()
		s.metrics.NEWS2Score.Observe(float64(score))
		s.metrics.InterpretationsTotal.WithLabelValues(string(interp.Source)).Inc()
		s.metrics.RecordDuration.Observe(time.Since(start).Seconds())
	}

	s.logger.Info(ctx, "vitals recorded",
		"record_id", rec.ID,
		"patient_id", p.ID,
		"news2_score", score,
		"alert_level", alert.Level,
		"interpretation_source", interp.Source,
	)

	if alert.Level == news2.LevelHigh && s.notifier != nil {
		// best-effort: the recording is already committed, a notification
		// failure must not surface to the caller.
		go s.notify(context.WithoutCancel(ctx), p, rec)
	}

	return rec, nil
}

// GetRecord retrieves a stored vitals record by ID.
func (s *Service) GetRecord(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.GetRecord(ctx, id)
}

// ListPatientRecords returns a patient's vitals history, most recent first.
// The patient must exist.
func (s *Service) ListPatientRecords(ctx context.Context, patientID string) ([]*Record, error) {
	if _, ok, err := s.store.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	} else if !ok {
		return nil, ErrPatientNotFound
	}
	return s.store.ListPatientRecords(ctx, patientID)
}

func (s *Service) notify(ctx context.Context, p *patient.Patient, rec *Record) {
	if err := s.notifier.Send(ctx, p, rec); err != nil {
		if s.metrics != nil {
			s.metrics.NotifyFailuresTotal.Inc()
		}
		s.logger.Error(ctx, err, "high-risk notification failed",
			"record_id", rec.ID,
			"patient_id", p.ID,
		)
	}
}

// statusFor maps an alert level to the patient status written alongside the
// record: high -> alert, medium -> monitoring, low -> stable.
func statusFor(level news2.Level) patient.Status {
	switch level {
	case news2.LevelHigh:
		return patient.StatusAlert
	case news2.LevelMedium:
		return patient.StatusMonitoring
	default:
		return patient.StatusStable
	}
}
