package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

func testPatient() *patient.Patient {
	return &patient.Patient{
		ID:             "01JP001",
		HospitalNumber: "P001",
		FullName:       "Ada Example",
		Status:         patient.StatusAlert,
	}
}

func testRecord() *vitals.Record {
	return &vitals.Record{
		ID:        "01JR001",
		PatientID: "01JP001",
		Reading: vitals.Reading{
			SystolicBP:       85,
			DiastolicBP:      50,
			HeartRate:        125,
			Temperature:      36.5,
			RespiratoryRate:  22,
			OxygenSaturation: 95,
		},
		NEWS2Score:           8,
		Alert:                news2.Classify(8),
		Interpretation:       "PATTERN ALERTS:\n! POSSIBLE SHOCK: Hypotension with compensatory tachycardia.",
		InterpretationSource: vitals.SourceRules,
		RecordedAt:           time.Date(2026, 8, 30, 14, 23, 0, 0, time.UTC),
	}
}

func TestSend_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	if err := n.Send(context.Background(), testPatient(), testRecord()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, fields, divider, interpretation, divider, context = 7 blocks
	if len(blocks) != 7 {
		t.Errorf("blocks count = %d, want 7", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "P001") {
		t.Errorf("header text = %q, want to contain hospital number", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Error("header should contain red circle for high risk")
	}
}

func TestSend_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", log.Nop())
	if err := n.Send(context.Background(), testPatient(), testRecord()); err != nil {
		t.Fatalf("Send with empty URL should be no-op, got: %v", err)
	}
}

func TestSend_WebhookError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	err := n.Send(context.Background(), testPatient(), testRecord())
	if err == nil {
		t.Fatal("expected error for non-2xx webhook response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want status code mentioned", err)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxInterpretationLen+100)
	got := truncate(long, maxInterpretationLen)
	if len(got) != maxInterpretationLen {
		t.Errorf("len = %d, want %d", len(got), maxInterpretationLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated text should end with ellipsis")
	}
	if truncate("short", maxInterpretationLen) != "short" {
		t.Error("short text should pass through unchanged")
	}
}
