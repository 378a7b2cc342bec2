// Package careapi exposes the patient and vitals HTTP endpoints.
package careapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

// VitalsService defines the business operations careapi needs.
type VitalsService interface {
	RegisterPatient(ctx context.Context, p *patient.Patient) (*patient.Patient, error)
	GetPatient(ctx context.Context, id string) (*patient.Patient, bool, error)
	ListPatients(ctx context.Context) ([]*patient.Patient, error)
	SearchPatients(ctx context.Context, query string) ([]*patient.Patient, error)
	Record(ctx context.Context, patientID string, r vitals.Reading) (*vitals.Record, error)
	GetRecord(ctx context.Context, id string) (*vitals.Record, bool, error)
	ListPatientRecords(ctx context.Context, patientID string) ([]*vitals.Record, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    VitalsService
	auth   func(http.Handler) http.Handler
}

// New creates a new API handler. auth guards write endpoints and may be nil.
func New(logger log.Logger, svc VitalsService, auth func(http.Handler) http.Handler) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("vitals service is required"))
	}
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}
	return &API{
		logger: logger,
		svc:    svc,
		auth:   auth,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/patients", a.handleListPatients)
		r.Get("/patients/search", a.handleSearchPatients)
		r.Get("/patients/{id}", a.handleGetPatient)
		r.Get("/patients/{id}/vitals", a.handleListPatientVitals)
		r.Get("/vitals/{id}", a.handleGetVitals)
		r.Post("/score", a.handleScore)

		r.With(a.auth).Post("/patients", a.handleRegisterPatient)
		r.With(a.auth).Post("/patients/{id}/vitals", a.handleRecordVitals)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
