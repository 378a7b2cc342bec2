package vitals

import (
	"fmt"
	"strings"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
)

// disclaimer terminates every interpretation, from either tier.
const disclaimer = "Decision support only - not a diagnosis. Requires clinician validation."

// fallbackNarrative evaluates the local clinical pattern rules and renders
// the three-section narrative. It is pure: identical inputs produce
// byte-identical output.
func fallbackNarrative(r Reading, p *patient.Patient, score int, alert news2.Alert) string {
	patterns, patternRecs := patternAlerts(r)
	observations := singleVitalFindings(r, score)
	recs := append(patternRecs, levelRecommendations(alert.Level)...)
	recs = append(recs, contextCaveats(r, p, alert.Level)...)

	var b strings.Builder

	if len(patterns) > 0 {
		b.WriteString("PATTERN ALERTS:\n")
		for _, pa := range patterns {
			b.WriteString("! " + pa + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("OBSERVATIONS:\n")
	if len(observations) == 0 {
		b.WriteString("- Vital signs stable within normal limits.\n")
	} else {
		for _, o := range observations {
			b.WriteString("- " + o + "\n")
		}
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	for _, rec := range recs {
		b.WriteString("-> " + rec + "\n")
	}

	b.WriteString("\n" + disclaimer)
	return b.String()
}

// minimalNarrative is the last-resort output when narrative assembly itself
// fails. It still carries the score, level, and disclaimer.
func minimalNarrative(score int, alert news2.Alert) string {
	return fmt.Sprintf("NEWS2 score %d (%s risk). %s\n\n%s", score, alert.Level, alert.Text, disclaimer)
}

// patternAlerts evaluates the multi-vital combination rules in fixed order.
func patternAlerts(r Reading) (alerts, recs []string) {
	// sepsis screen: two or more systemic inflammatory response signs
	sepsisSigns := 0
	if r.Temperature > 38.3 || r.Temperature < 36.0 {
		sepsisSigns++
	}
	if r.HeartRate > 90 {
		sepsisSigns++
	}
	if r.RespiratoryRate > 20 {
		sepsisSigns++
	}
	if r.SystolicBP < 100 {
		sepsisSigns++
	}
	if sepsisSigns >= 2 {
		alerts = append(alerts, "POSSIBLE SEPSIS: Multiple systemic inflammatory response signs detected.")
		recs = append(recs,
			"URGENT: Sepsis screening required (lactate, blood cultures)",
			"Assess urine output and mental status",
		)
	}

	// hypovolemic shock: hypotension with compensatory tachycardia
	if r.SystolicBP < 90 && r.HeartRate > 100 {
		alerts = append(alerts, "POSSIBLE SHOCK: Hypotension with compensatory tachycardia.")
		recs = append(recs,
			"URGENT: Assess fluid status and perfusion",
			"Prepare for fluid resuscitation",
		)
	}

	// respiratory failure indicators
	if r.OxygenSaturation < 92 && r.RespiratoryRate > 24 {
		alerts = append(alerts, "RESPIRATORY DISTRESS: Hypoxia with tachypnea.")
		recs = append(recs,
			"URGENT: Respiratory assessment required",
			"Consider ABG and chest imaging",
		)
	}

	// hypertensive crisis
	if r.SystolicBP > 180 || r.DiastolicBP > 120 {
		alerts = append(alerts, "HYPERTENSIVE CRISIS: Critical blood pressure elevation.")
		recs = append(recs,
			"Immediate medical review required",
			"Assess for end-organ damage (chest pain, headache, vision changes)",
		)
	}

	return alerts, recs
}

// singleVitalFindings lists isolated abnormalities with their literal values,
// followed by NEWS2 score context.
func singleVitalFindings(r Reading, score int) []string {
	var findings []string

	if r.Temperature > 38.0 {
		findings = append(findings, fmt.Sprintf("Pyrexia (%.1f°C)", r.Temperature))
	} else if r.Temperature < 35.0 {
		findings = append(findings, fmt.Sprintf("Hypothermia (%.1f°C)", r.Temperature))
	}

	if r.HeartRate > 100 {
		findings = append(findings, fmt.Sprintf("Tachycardia (%d bpm)", r.HeartRate))
	} else if r.HeartRate < 60 {
		findings = append(findings, fmt.Sprintf("Bradycardia (%d bpm)", r.HeartRate))
	}

	if r.SystolicBP < 90 {
		findings = append(findings, fmt.Sprintf("Hypotension (%d/%d mmHg)", r.SystolicBP, r.DiastolicBP))
	} else if r.SystolicBP > 140 {
		findings = append(findings, fmt.Sprintf("Hypertension (%d/%d mmHg)", r.SystolicBP, r.DiastolicBP))
	}

	if r.OxygenSaturation < 94 {
		findings = append(findings, fmt.Sprintf("Hypoxia (%d%%)", r.OxygenSaturation))
	}

	switch {
	case score >= 7:
		findings = append(findings, fmt.Sprintf("CRITICAL NEWS2 score (%d)", score))
	case score >= 5:
		findings = append(findings, fmt.Sprintf("Elevated NEWS2 score (%d)", score))
	}

	return findings
}

// levelRecommendations maps the alert tier to baseline guidance.
func levelRecommendations(level news2.Level) []string {
	switch level {
	case news2.LevelHigh:
		return []string{
			"URGENT: Notify physician immediately",
			"Increase observation frequency to continuous monitoring",
		}
	case news2.LevelMedium:
		return []string{
			"Clinical review within one hour",
			"Increase observation frequency",
		}
	default:
		return []string{"Continue routine monitoring"}
	}
}

// contextCaveats performs best-effort case-insensitive substring matching
// over the patient's free-text medications and allergies. These are heuristic
// annotations, not safety-critical decisions: free text is unstructured and
// the matching will miss synonyms and brand names.
func contextCaveats(r Reading, p *patient.Patient, level news2.Level) []string {
	if p == nil {
		return nil
	}

	var caveats []string

	if meds := strings.ToLower(p.Medications); strings.Contains(meds, "beta blocker") && r.HeartRate < 60 {
		caveats = append(caveats, "Bradycardia may be medication-induced (beta blockers listed)")
	}

	if allergies := strings.TrimSpace(p.Allergies); allergies != "" && level == news2.LevelHigh {
		caveats = append(caveats, "Documented allergies: "+allergies+" - review before administering new medication")
	}

	return caveats
}
