package careapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/vitals"
)

func (a *API) handleRecordVitals(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("vitalis.patient.id", patientID))

	var reading vitals.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	rec, err := a.svc.Record(r.Context(), patientID, reading)
	if err != nil {
		if errors.Is(err, vitals.ErrPatientNotFound) {
			http.Error(w, `{"error":"patient not found"}`, http.StatusNotFound)
			return
		}
		a.logger.Error(r.Context(), err, "failed to record vitals", "patient_id", patientID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span.SetAttributes(
		attribute.Int("vitalis.news2.score", rec.NEWS2Score),
		attribute.String("vitalis.alert.level", string(rec.Alert.Level)),
	)

	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleGetVitals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("vitalis.record.id", id))

	rec, ok, err := a.svc.GetRecord(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get vitals record", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"vitals record not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleListPatientVitals(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("vitalis.patient.id", patientID))

	records, err := a.svc.ListPatientRecords(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, vitals.ErrPatientNotFound) {
			http.Error(w, `{"error":"patient not found"}`, http.StatusNotFound)
			return
		}
		a.logger.Error(r.Context(), err, "failed to list vitals", "patient_id", patientID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*vitals.Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

type scoreResponse struct {
	NEWS2Score int         `json:"news2_score"`
	Alert      news2.Alert `json:"alert"`
}

// handleScore exposes the pure scoring function for tooling and testing
// without touching any patient record.
func (a *API) handleScore(w http.ResponseWriter, r *http.Request) {
	var obs news2.Observations
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	score := news2.Score(obs)
	writeJSON(w, http.StatusOK, scoreResponse{
		NEWS2Score: score,
		Alert:      news2.Classify(score),
	})
}
