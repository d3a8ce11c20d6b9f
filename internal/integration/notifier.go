package integration

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/cleaning-contracts/internal/service"
)

type notification struct {
	Event     service.EventKind `json:"event"`
	Recipient recipient         `json:"recipient"`
	Payload   map[string]any    `json:"payload,omitempty"`
}

type recipient struct {
	Party      string `json:"party"`
	ProviderID uint64 `json:"provider_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// WebhookNotifier hands events to the email/SMS dispatcher.
type WebhookNotifier struct {
	client webhookClient
}

func NewWebhookNotifier(baseURL string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{client: newWebhookClient(baseURL, timeout)}
}

func (n *WebhookNotifier) Notify(ctx context.Context, kind service.EventKind, to service.Recipient, payload map[string]any) error {
	return n.client.do(ctx, http.MethodPost, "/notifications", notification{
		Event: kind,
		Recipient: recipient{
			Party:      string(to.Party),
			ProviderID: to.ProviderID,
			Name:       to.Name,
			Email:      to.Email,
			Phone:      to.Phone,
		},
		Payload: payload,
	}, nil)
}

type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, kind service.EventKind, to service.Recipient, _ map[string]any) error {
	n.log.Info().
		Str("event", string(kind)).
		Str("party", string(to.Party)).
		Uint64("provider_id", to.ProviderID).
		Str("email", to.Email).
		Msg("notification")
	return nil
}
