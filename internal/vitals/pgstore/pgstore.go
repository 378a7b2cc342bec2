// Package pgstore provides a PostgreSQL implementation of vitals.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

var tracer = otel.Tracer("github.com/wardlabs/vitalis/internal/vitals/pgstore")

//go:embed schema.sql
var schema string

// Store persists patients and vitals records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema against the pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const patientColumns = `id, hospital_number, full_name, date_of_birth, age, gender,
	allergies, medications, last_visit, status`

const recordColumns = `id, patient_id, blood_pressure_systolic, blood_pressure_diastolic,
	heart_rate, temperature, respiratory_rate, oxygen_saturation, weight, notes,
	recorded_by_email, news2_score, alert_level, alert_color, alert_text,
	interpretation, interpretation_source, recorded_at`

// CreatePatient inserts a new patient row.
func (s *Store) CreatePatient(ctx context.Context, p *patient.Patient) error {
	ctx, span := tracer.Start(ctx, "pgstore.CreatePatient", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	var dob *time.Time
	if !p.DateOfBirth.IsZero() {
		dob = &p.DateOfBirth
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (id, hospital_number, full_name, date_of_birth, age, gender,
			allergies, medications, last_visit, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.HospitalNumber, p.FullName, dob, p.Age, p.Gender,
		p.Allergies, p.Medications, p.LastVisit, string(p.Status),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Store) GetPatient(ctx context.Context, id string) (*patient.Patient, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetPatient", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	p, err := scanPatientRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if p == nil {
		return nil, false, nil
	}
	return p, true, nil
}

// GetPatientByHospitalNumber retrieves a patient by hospital number.
func (s *Store) GetPatientByHospitalNumber(ctx context.Context, hn string) (*patient.Patient, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetPatientByHospitalNumber", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients WHERE hospital_number = $1`
	p, err := scanPatientRow(s.pool.QueryRow(ctx, query, hn))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if p == nil {
		return nil, false, nil
	}
	return p, true, nil
}

// ListPatients returns all patients ordered by hospital number.
func (s *Store) ListPatients(ctx context.Context) ([]*patient.Patient, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListPatients", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY hospital_number`
	return s.queryPatients(ctx, span, query)
}

// SearchPatients matches the query case-insensitively against hospital
// numbers and full names.
func (s *Store) SearchPatients(ctx context.Context, q string) ([]*patient.Patient, error) {
	ctx, span := tracer.Start(ctx, "pgstore.SearchPatients", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + patientColumns + ` FROM patients
		WHERE hospital_number ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
		ORDER BY hospital_number`
	return s.queryPatients(ctx, span, query, q)
}

// SaveRecord inserts the vitals record and updates the patient's status and
// last visit inside a single transaction.
func (s *Store) SaveRecord(ctx context.Context, rec *vitals.Record, newStatus patient.Status) error {
	ctx, span := tracer.Start(ctx, "pgstore.SaveRecord", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	var weight *float64
	if rec.Weight > 0 {
		weight = &rec.Weight
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO vital_signs (`+recordColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		rec.ID, rec.PatientID, rec.SystolicBP, rec.DiastolicBP,
		rec.HeartRate, rec.Temperature, rec.RespiratoryRate, rec.OxygenSaturation, weight, rec.Notes,
		rec.RecordedBy, rec.NEWS2Score, string(rec.Alert.Level), rec.Alert.Color, rec.Alert.Text,
		rec.Interpretation, string(rec.InterpretationSource), rec.RecordedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert vital signs: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE patients SET status = $1, last_visit = $2 WHERE id = $3`,
		string(newStatus), rec.RecordedAt, rec.PatientID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("update patient status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vitals.ErrPatientNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRecord retrieves a vitals record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*vitals.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetRecord", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM vital_signs WHERE id = $1`
	rec, err := scanRecordRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if rec == nil {
		return nil, false, nil
	}
	return rec, true, nil
}

// ListPatientRecords returns a patient's records, most recent first.
func (s *Store) ListPatientRecords(ctx context.Context, patientID string) ([]*vitals.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListPatientRecords", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM vital_signs
		WHERE patient_id = $1 ORDER BY recorded_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query, patientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query vital signs: %w", err)
	}
	defer rows.Close()

	var out []*vitals.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate vital signs: %w", err)
	}
	return out, nil
}

func (s *Store) queryPatients(ctx context.Context, span trace.Span, query string, args ...any) ([]*patient.Patient, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []*patient.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

// scanPatientRow scans a single row into a patient. Returns (nil, nil) when
// no row is found.
func scanPatientRow(row pgx.Row) (*patient.Patient, error) {
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanPatient(row pgx.Row) (*patient.Patient, error) {
	var (
		p      patient.Patient
		dob    *time.Time
		status string
	)
	err := row.Scan(
		&p.ID, &p.HospitalNumber, &p.FullName, &dob, &p.Age, &p.Gender,
		&p.Allergies, &p.Medications, &p.LastVisit, &status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	if dob != nil {
		p.DateOfBirth = *dob
	}
	p.Status = patient.Status(status)
	return &p, nil
}

// scanRecordRow scans a single row into a record. Returns (nil, nil) when no
// row is found.
func scanRecordRow(row pgx.Row) (*vitals.Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*vitals.Record, error) {
	var (
		rec    vitals.Record
		weight *float64
		level  string
		source string
	)
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.SystolicBP, &rec.DiastolicBP,
		&rec.HeartRate, &rec.Temperature, &rec.RespiratoryRate, &rec.OxygenSaturation, &weight, &rec.Notes,
		&rec.RecordedBy, &rec.NEWS2Score, &level, &rec.Alert.Color, &rec.Alert.Text,
		&rec.Interpretation, &source, &rec.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan vital signs: %w", err)
	}
	if weight != nil {
		rec.Weight = *weight
	}
	rec.Alert.Level = news2.Level(level)
	rec.InterpretationSource = vitals.Source(source)
	return &rec, nil
}
