package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/servio-app/servio-backend/pkg/config"
	"github.com/servio-app/servio-backend/pkg/db/models"
)

// PushSender forwards notifications to the push gateway webhook.
type PushSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewPushSender builds a push sender, or nil when no endpoint is configured.
func NewPushSender(cfg config.NotifyConfig) *PushSender {
	if cfg.PushEndpoint == "" {
		return nil
	}
	return &PushSender{
		endpoint: cfg.PushEndpoint,
		apiKey:   cfg.PushAPIKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *PushSender) Send(ctx context.Context, n models.Notification) error {
	payload := map[string]any{
		"recipient_id":   n.RecipientID.String(),
		"recipient_type": n.RecipientType,
		"kind":           n.Kind,
		"title":          n.Title,
		"body":           n.Body,
	}
	if len(n.Data) > 0 {
		payload["data"] = json.RawMessage(n.Data)
	}
	return postJSON(ctx, p.client, p.endpoint, p.apiKey, payload)
}

// EmailSender forwards notifications to the transactional email API.
type EmailSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewEmailSender builds an email sender, or nil when no endpoint is configured.
func NewEmailSender(cfg config.NotifyConfig) *EmailSender {
	if cfg.EmailEndpoint == "" {
		return nil
	}
	return &EmailSender{
		endpoint: cfg.EmailEndpoint,
		apiKey:   cfg.EmailAPIKey,
		from:     cfg.EmailFrom,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *EmailSender) Send(ctx context.Context, n models.Notification) error {
	payload := map[string]any{
		"from":         e.from,
		"recipient_id": n.RecipientID.String(),
		"subject":      n.Title,
		"text":         n.Body,
	}
	return postJSON(ctx, e.client, e.endpoint, e.apiKey, payload)
}

func postJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}
