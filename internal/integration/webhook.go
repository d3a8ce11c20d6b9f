// Package integration holds the HTTP clients for the payment, calendar and
// notification collaborators, plus log-only stand-ins used when an
// endpoint is not configured.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

// StatusError is returned for any non-2xx collaborator response.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

type webhookClient struct {
	baseURL    string
	httpClient *http.Client
}

func newWebhookClient(baseURL string, timeout time.Duration) webhookClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return webhookClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c webhookClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Collaborators is the set of external clients handed to the services.
// Payments stays nil when no payment endpoint is configured, which turns
// the billing trigger off.
type Collaborators struct {
	Notifier service.Notifier
	Payments service.PaymentGateway
	Calendar service.Calendar
}

func New(cfg config.CollaboratorConfig, log zerolog.Logger) Collaborators {
	var set Collaborators

	if cfg.NotifyURL != "" {
		set.Notifier = NewWebhookNotifier(cfg.NotifyURL, cfg.Timeout)
	} else {
		log.Warn().Msg("NOTIFY_WEBHOOK_URL not set; notifications are only logged")
		set.Notifier = NewLogNotifier(log)
	}

	if cfg.CalendarURL != "" {
		set.Calendar = NewCalendarClient(cfg.CalendarURL, cfg.Timeout)
	} else {
		log.Warn().Msg("CALENDAR_WEBHOOK_URL not set; calendar events are only logged")
		set.Calendar = NewLogCalendar(log)
	}

	if cfg.PaymentURL != "" {
		set.Payments = NewPaymentClient(cfg.PaymentURL, cfg.Timeout)
	} else {
		log.Warn().Msg("PAYMENT_WEBHOOK_URL not set; invoices and subscriptions are not created")
	}
	return set
}
