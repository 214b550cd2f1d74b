// Package whatsapp sends messages through the WhatsApp Cloud (Graph) API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// AlertTemplate is the template used for officer alerts.
const AlertTemplate = "alert_message_to_officer"

// Kind selects the message type sent.
type Kind string

const (
	KindCustom                 Kind = "custom"
	KindTemplate               Kind = "template"
	KindTemplateWithComponents Kind = "template_with_components"
	KindInteractive            Kind = "interactive"
)

// Client is a WhatsApp Cloud API client.
type Client struct {
	baseURL     string
	phoneID     string
	accessToken string
	officer     string
	httpClient  *http.Client
	log         *slog.Logger
}

// Config configures the client.
type Config struct {
	BaseURL       string
	PhoneID       string
	AccessToken   string
	OfficerNumber string
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.PhoneID == "" {
		return nil, errors.New("WHATSAPP_PHONE_ID is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("WHATSAPP_ACCESS_TOKEN is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:     baseURL,
		phoneID:     cfg.PhoneID,
		accessToken: cfg.AccessToken,
		officer:     cfg.OfficerNumber,
		httpClient:  httpClient,
		log:         log,
	}, nil
}

// Template is a message template reference.
type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components,omitempty"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// APIError is the Graph API error body.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api %d: %s (%s, code %d)", e.Status, e.Message, e.Type, e.Code)
}

// Send posts one message to number. message is a string for KindCustom, a
// Template (or any JSON value) for the template kinds, and a map merged into
// the request for KindInteractive.
func (c *Client) Send(ctx context.Context, number string, message any, kind Kind) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                number,
	}

	switch kind {
	case KindTemplate, KindTemplateWithComponents:
		payload["type"] = "template"
		payload["template"] = message
	case KindInteractive:
		fields, ok := message.(map[string]any)
		if !ok {
			return fmt.Errorf("interactive message must be an object, got %T", message)
		}
		payload["type"] = "interactive"
		for k, v := range fields {
			payload[k] = v
		}
	default:
		text, ok := message.(string)
		if !ok {
			return fmt.Errorf("custom message must be text, got %T", message)
		}
		payload["type"] = "text"
		payload["text"] = map[string]string{"body": FormatMessage(text)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// AlertOfficer sends text to the configured officer with the alert
// template. It reports success only; failures are logged.
func (c *Client) AlertOfficer(ctx context.Context, text string) bool {
	if c.officer == "" {
		c.log.Error("officer alert not sent: OFFICER_NUMBER not configured")
		return false
	}

	tmpl := Template{
		Name:     AlertTemplate,
		Language: Language{Code: "en"},
		Components: []Component{{
			Type:       "body",
			Parameters: []Parameter{{Type: "text", Text: strings.ToLower(strings.TrimSpace(text))}},
		}},
	}
	if err := c.Send(ctx, c.officer, tmpl, KindTemplateWithComponents); err != nil {
		c.log.Error("officer alert failed", "err", err)
		return false
	}
	c.log.Info("officer alerted", "to", c.officer)
	return true
}

// do executes a request with bearer authentication.
func (c *Client) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var wrapper struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
			return fmt.Errorf("whatsapp api %d: %s", resp.StatusCode, string(body))
		}
		wrapper.Error.Status = resp.StatusCode
		return &wrapper.Error
	}
	return nil
}

// FormatMessage normalizes line endings, trims spaces and tabs around each
// line, and collapses runs of three newlines into a paragraph break.
func FormatMessage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " \t")
	}
	text = strings.Join(lines, "\n")

	parts := strings.Split(text, "\n\n\n")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
