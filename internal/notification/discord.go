package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Discord posts run outcomes to webhooks. A notifier without URLs is silent.
type Discord struct {
	ErrorURL   string
	SuccessURL string
	Client     *http.Client
}

func NewDiscord(cfg properties.Config) *Discord {
	return &Discord{
		ErrorURL:   cfg.DiscordErrorURL,
		SuccessURL: cfg.DiscordSuccessURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Error(errorMessage string) error {
	return d.send(d.ErrorURL, DiscordEmbed{
		Title:       "🚨 Error Notification",
		Description: fmt.Sprintf("Scene processing failed.\n\n%s", errorMessage),
		Color:       16711680, // Red color
	})
}

func (d *Discord) Success(successMessage string) error {
	return d.send(d.SuccessURL, DiscordEmbed{
		Title:       "✅ Success Notification",
		Description: successMessage,
		Color:       65280, // Green color
	})
}

func (d *Discord) send(url string, embed DiscordEmbed) error {
	if d == nil || url == "" {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}
	return nil
}
