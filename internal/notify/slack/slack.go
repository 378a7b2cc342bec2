// Package slack sends high-risk vitals notifications to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/wardlabs/vitalis/internal/patient"
	"github.com/wardlabs/vitalis/internal/vitals"
)

const (
	maxInterpretationLen = 3000
	httpTimeout          = 10 * time.Second
)

// Notifier posts high-risk recordings to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts a vitals record to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, p *patient.Patient, rec *vitals.Record) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(p, rec)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(p *patient.Patient, rec *vitals.Record) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(p),
			{"type": "divider"},
			fieldsBlock(p, rec),
			{"type": "divider"},
			interpretationBlock(rec),
			{"type": "divider"},
			contextBlock(rec),
		},
	}
}

func headerBlock(p *patient.Patient) map[string]any {
	text := fmt.Sprintf("\U0001f534 High Risk Vitals: %s (%s)", p.FullName, p.HospitalNumber)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(p *patient.Patient, rec *vitals.Record) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*NEWS2 score:* %d", rec.NEWS2Score),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Level:* %s", rec.Alert.Level),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*BP:* %d/%d mmHg", rec.SystolicBP, rec.DiastolicBP),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*HR:* %d bpm", rec.HeartRate),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Temp:* %.1f°C", rec.Temperature),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*SpO2:* %d%% / RR: %d", rec.OxygenSaturation, rec.RespiratoryRate),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func interpretationBlock(rec *vitals.Record) map[string]any {
	text := truncate(rec.Interpretation, maxInterpretationLen)
	if text == "" {
		text = "_No interpretation available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Interpretation* (%s)\n\n%s", rec.InterpretationSource, text),
		},
	}
}

func contextBlock(rec *vitals.Record) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("vitalis • record %s • %s", rec.ID, rec.RecordedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
