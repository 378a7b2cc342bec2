// Package patient defines the patient record shared across the vitals
// domain. The engine never mutates a patient; only the recording workflow
// writes Status and LastVisit, and only through the store.
package patient

import "time"

// Status reflects the alert level of a patient's most recent vitals
// recording, not an aggregate or trend.
type Status string

const (
	StatusStable     Status = "stable"
	StatusMonitoring Status = "monitoring"
	StatusAlert      Status = "alert"
)

// Patient is the demographic and clinical-context record.
type Patient struct {
	ID             string    `json:"id"`
	HospitalNumber string    `json:"hospital_number"`
	FullName       string    `json:"full_name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Allergies      string    `json:"allergies,omitempty"`
	Medications    string    `json:"medications,omitempty"`
	LastVisit      time.Time `json:"last_visit"`
	Status         Status    `json:"status"`
}
