// Package webhook notifies an external endpoint when background
// enrichment completes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

// Event is the payload posted to the webhook endpoint.
type Event struct {
	Type      string `json:"type"` // "link.enriched"
	ItemID    string `json:"item_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Sender delivers signed events to a single configured endpoint. A Sender
// with an empty URL silently drops every event.
type Sender struct {
	cfg config.WebhookConfig
}

// NewSender creates a Sender from config.
func NewSender(cfg config.WebhookConfig) *Sender {
	return &Sender{cfg: cfg}
}

// LinkEnriched posts a "link.enriched" event asynchronously with retries.
// Satisfies the enrich.Notifier interface.
func (s *Sender) LinkEnriched(itemID string, md *models.Metadata) {
	if s.cfg.URL == "" {
		return
	}
	s.deliverAsync(&Event{
		Type:      "link.enriched",
		ItemID:    itemID,
		Timestamp: time.Now().Unix(),
		Data:      md,
	})
}

// Deliver sends an event synchronously. The request body is signed with
// HMAC-SHA256 when a secret is configured.
// Header: X-Linkhive-Signature: sha256=<hex>
func (s *Sender) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Linkhive-Webhook/1.0")

	if s.cfg.Secret != "" {
		req.Header.Set("X-Linkhive-Signature", "sha256="+Sign(body, s.cfg.Secret))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of the body. Exported so receivers
// (and tests) can verify signatures.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// deliverAsync sends the event in a goroutine with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func (s *Sender) deliverAsync(event *Event) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := s.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"event", event.Type,
					"item_id", event.ItemID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"event", event.Type,
				"item_id", event.ItemID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"event", event.Type,
			"item_id", event.ItemID,
		)
	}()
}
