package vitals

import (
	"time"

	"github.com/wardlabs/vitalis/internal/news2"
)

// Reading is one set of vital sign measurements as submitted. No field has an
// enforced physiological range; out-of-range values still score.
type Reading struct {
	SystolicBP       int     `json:"blood_pressure_systolic"`
	DiastolicBP      int     `json:"blood_pressure_diastolic"`
	HeartRate        int     `json:"heart_rate"`
	Temperature      float64 `json:"temperature"`
	RespiratoryRate  int     `json:"respiratory_rate"`
	OxygenSaturation int     `json:"oxygen_saturation"`
	Weight           float64 `json:"weight,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	RecordedBy       string  `json:"recorded_by_email,omitempty"`
}

// Observations projects the five NEWS2-scored vitals out of a reading.
func (r Reading) Observations() news2.Observations {
	return news2.Observations{
		RespiratoryRate:  r.RespiratoryRate,
		OxygenSaturation: r.OxygenSaturation,
		Temperature:      r.Temperature,
		SystolicBP:       r.SystolicBP,
		HeartRate:        r.HeartRate,
	}
}

// Source identifies which tier produced an interpretation.
type Source string

const (
	// SourceLLM means the narrative came from the generative provider.
	SourceLLM Source = "llm"

	// SourceRules means the deterministic local rule engine produced it.
	SourceRules Source = "rules"
)

// Record is a stored vitals recording with all derived fields. A record is
// written once and never edited; corrections are new records.
type Record struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`

	Reading

	NEWS2Score           int         `json:"news2_score"`
	Alert                news2.Alert `json:"alert"`
	Interpretation       string      `json:"interpretation"`
	InterpretationSource Source      `json:"interpretation_source"`
	RecordedAt           time.Time   `json:"recorded_at"`
}
