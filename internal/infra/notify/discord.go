// Package notify implements the outbound alert sinks: a Discord webhook and
// a Telegram chat, optionally fanned out together.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordWebhook posts alerts to a Discord channel webhook. Payload carries
// only the alert text, no embeds.
type DiscordWebhook struct {
	url  string
	http *http.Client
}

// NewDiscordWebhook builds the sink for the given webhook URL.
func NewDiscordWebhook(url string) *DiscordWebhook {
	return &DiscordWebhook{
		url:  url,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

type discordPayload struct {
	Content string `json:"content"`
}

// Send delivers one alert. Fire-and-forget contract: the caller logs
// failures and moves on.
func (d *DiscordWebhook) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(discordPayload{Content: text})
	if err != nil {
		return fmt.Errorf("discord: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord: deliver: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
