// Package news2 computes a five-factor National Early Warning Score (NEWS2)
// from a set of physiological observations and maps scores to alert levels.
//
// This is the five-vital variant: the supplemental-oxygen and consciousness
// factors of the full clinical NEWS2 are not collected here, and the summed
// score is deliberately left uncapped. Callers should not assume the
// conventional clinical maximum of 20.
package news2

// Observations holds the five scored vitals. Zero or out-of-range values are
// legal inputs; anything that matches no scoring band contributes 0.
type Observations struct {
	RespiratoryRate  int     `json:"respiratory_rate"`
	OxygenSaturation int     `json:"oxygen_saturation"`
	Temperature      float64 `json:"temperature"`
	SystolicBP       int     `json:"blood_pressure_systolic"`
	HeartRate        int     `json:"heart_rate"`
}

// Level is the coarse risk tier derived from a NEWS2 score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Alert pairs a risk level with its display metadata.
type Alert struct {
	Level Level  `json:"level"`
	Color string `json:"color"`
	Text  string `json:"text"`
}

// Score sums the five per-vital sub-scores. It is total and deterministic:
// any input, however implausible, produces an integer without error.
func Score(o Observations) int {
	return respiratoryScore(o.RespiratoryRate) +
		saturationScore(o.OxygenSaturation) +
		temperatureScore(o.Temperature) +
		systolicScore(o.SystolicBP) +
		heartRateScore(o.HeartRate)
}

// Classify maps a NEWS2 score to its alert tier using fixed thresholds:
// >=7 high, 5..6 medium, otherwise low.
func Classify(score int) Alert {
	switch {
	case score >= 7:
		return Alert{Level: LevelHigh, Color: "red", Text: "High Risk - Urgent Medical Attention Required"}
	case score >= 5:
		return Alert{Level: LevelMedium, Color: "yellow", Text: "Medium Risk - Monitor Closely"}
	default:
		return Alert{Level: LevelLow, Color: "green", Text: "Low Risk - Stable"}
	}
}

// Each band function lists its scoring bands explicitly; a value matching no
// band falls through to the implicit normal band and scores 0.

func respiratoryScore(rr int) int {
	switch {
	case rr <= 8:
		return 3
	case rr >= 9 && rr <= 11:
		return 1
	case rr >= 21 && rr <= 24:
		return 2
	case rr >= 25:
		return 3
	default:
		return 0
	}
}

func saturationScore(spo2 int) int {
	switch {
	case spo2 <= 91:
		return 3
	case spo2 >= 92 && spo2 <= 93:
		return 2
	case spo2 >= 94 && spo2 <= 95:
		return 1
	default:
		return 0
	}
}

// temperatureScore bands are bounded to one decimal place; a reading between
// bands (e.g. 35.05) matches none of them and scores 0.
func temperatureScore(t float64) int {
	switch {
	case t <= 35.0:
		return 3
	case t >= 35.1 && t <= 36.0:
		return 1
	case t >= 38.1 && t <= 39.0:
		return 1
	case t >= 39.1:
		return 2
	default:
		return 0
	}
}

func systolicScore(bp int) int {
	switch {
	case bp <= 90:
		return 3
	case bp >= 91 && bp <= 100:
		return 2
	case bp >= 101 && bp <= 110:
		return 1
	case bp >= 220:
		return 3
	default:
		return 0
	}
}

func heartRateScore(hr int) int {
	switch {
	case hr <= 40:
		return 3
	case hr >= 41 && hr <= 50:
		return 1
	case hr >= 91 && hr <= 110:
		return 1
	case hr >= 111 && hr <= 130:
		return 2
	case hr >= 131:
		return 3
	default:
		return 0
	}
}
