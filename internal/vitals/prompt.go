package vitals

import (
	"fmt"
	"strings"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
)

// buildSystemPrompt sets the clinical register and output shape for the
// generative provider.
func buildSystemPrompt() string {
	return `You are a clinical decision-support assistant for ward nursing staff. You interpret a single set of vital signs that has already been scored with a five-factor NEWS2 early warning score.

Write a concise narrative with exactly three sections:
OBSERVATIONS: one bullet per abnormal finding, with the measured value.
PATTERN ALERTS: multi-vital patterns of concern, if any (sepsis, shock, respiratory distress, hypertensive crisis).
RECOMMENDATIONS: monitoring and escalation guidance appropriate to the risk tier, noting any medication or allergy considerations.

Be factual and operational. Do not diagnose. This text is shown to nurses alongside the raw vitals.`
}

// buildUserPrompt summarizes the reading, the computed score, and the
// patient context for the provider.
func buildUserPrompt(r Reading, p *patient.Patient, score int, alert news2.Alert) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Vital signs recorded:
  Blood pressure: %d/%d mmHg
  Heart rate: %d bpm
  Temperature: %.1f°C
  Respiratory rate: %d breaths/min
  Oxygen saturation: %d%%
`, r.SystolicBP, r.DiastolicBP, r.HeartRate, r.Temperature, r.RespiratoryRate, r.OxygenSaturation)

	if r.Weight > 0 {
		fmt.Fprintf(&b, "  Weight: %.1f kg\n", r.Weight)
	}

	fmt.Fprintf(&b, "\nNEWS2 score: %d (%s risk - %s)\n", score, alert.Level, alert.Text)

	if p != nil {
		fmt.Fprintf(&b, "\nPatient context:\n  Age: %d\n  Gender: %s\n", p.Age, p.Gender)
		if p.Medications != "" {
			fmt.Fprintf(&b, "  Medications: %s\n", p.Medications)
		}
		if p.Allergies != "" {
			fmt.Fprintf(&b, "  Allergies: %s\n", p.Allergies)
		}
	}

	if r.Notes != "" {
		fmt.Fprintf(&b, "\nNurse notes: %s\n", r.Notes)
	}

	b.WriteString("\nProvide your interpretation.")
	return b.String()
}
