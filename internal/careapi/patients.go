package careapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

type registerPatientRequest struct {
	HospitalNumber string `json:"hospital_number"`
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Allergies      string `json:"allergies,omitempty"`
	Medications    string `json:"medications,omitempty"`
}

func (a *API) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.HospitalNumber == "" || req.FullName == "" {
		http.Error(w, `{"error":"hospital_number and full_name are required"}`, http.StatusBadRequest)
		return
	}

	p := &patient.Patient{
		HospitalNumber: req.HospitalNumber,
		FullName:       req.FullName,
		Age:            req.Age,
		Gender:         req.Gender,
		Allergies:      req.Allergies,
		Medications:    req.Medications,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			http.Error(w, `{"error":"date_of_birth must be YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		p.DateOfBirth = dob
	}

	created, err := a.svc.RegisterPatient(r.Context(), p)
	if err != nil {
		if errors.Is(err, vitals.ErrDuplicateHospitalNumber) {
			http.Error(w, `{"error":"hospital number already exists"}`, http.StatusConflict)
			return
		}
		a.logger.Error(r.Context(), err, "failed to register patient", "hospital_number", req.HospitalNumber)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("vitalis.patient.id", id))

	p, ok, err := a.svc.GetPatient(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get patient", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"patient not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := a.svc.ListPatients(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list patients")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if patients == nil {
		patients = []*patient.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}

func (a *API) handleSearchPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, `{"error":"query parameter q is required"}`, http.StatusBadRequest)
		return
	}

	patients, err := a.svc.SearchPatients(r.Context(), q)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to search patients", "query", q)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if patients == nil {
		patients = []*patient.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}
