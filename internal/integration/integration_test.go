package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

// collaboratorServer answers with the given status and body and records
// every request.
func collaboratorServer(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func testContract() (model.Contract, model.Client) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return model.Contract{
			ID:         3,
			PublicID:   uuid.MustParse("8a7c2f10-0b0e-4b8e-9d55-0d7a4b1f2c3d"),
			Title:      "Office cleaning",
			Frequency:  model.FrequencyWeekly,
			StartDate:  &start,
			EndDate:    &end,
			TotalValue: 1200,
			Currency:   "USD",
		}, model.Client{
			BusinessName: "Acme Dental",
			Email:        "ops@acme.example.com",
		}
}

func TestWebhookNotifier_PostsEvent(t *testing.T) {
	srv, calls := collaboratorServer(t, http.StatusAccepted, `{}`)
	n := NewWebhookNotifier(srv.URL+"/", time.Second)

	err := n.Notify(context.Background(), service.EventProposalSent, service.Recipient{
		Party:      model.PartyClient,
		ProviderID: 7,
		Email:      "ops@acme.example.com",
	}, map[string]any{"round": 1})
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].Method)
	assert.Equal(t, "/notifications", got[0].Path)
	assert.Equal(t, "scheduling_proposal_sent", got[0].Body["event"])
	recipient := got[0].Body["recipient"].(map[string]any)
	assert.Equal(t, "client", recipient["party"])
	assert.Equal(t, "ops@acme.example.com", recipient["email"])
}

func TestWebhookNotifier_Non2xxIsAnError(t *testing.T) {
	srv, _ := collaboratorServer(t, http.StatusBadGateway, `upstream down`)
	n := NewWebhookNotifier(srv.URL, time.Second)

	err := n.Notify(context.Background(), service.EventInvoiceIssued, service.Recipient{Party: model.PartyClient}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "upstream down", se.Body)
}

func TestPaymentClient_CreateInvoice(t *testing.T) {
	srv, calls := collaboratorServer(t, http.StatusCreated, `{"id":"in_42","hosted_invoice_url":"https://pay.example.com/in_42"}`)
	p := NewPaymentClient(srv.URL, time.Second)
	contract, client := testContract()

	ref, err := p.CreateInvoice(context.Background(), contract, client)
	require.NoError(t, err)
	assert.Equal(t, "in_42", ref.ID)
	assert.Equal(t, "https://pay.example.com/in_42", ref.URL)

	body := calls()[0].Body
	assert.Equal(t, "/invoices", calls()[0].Path)
	assert.Equal(t, 1200.0, body["amount"])
	assert.Equal(t, contract.Number(), body["contract_number"])
	assert.Equal(t, "Acme Dental", body["customer_name"])
}

func TestPaymentClient_CreateSubscriptionUsesVisitAmount(t *testing.T) {
	srv, calls := collaboratorServer(t, http.StatusOK, `{"id":"sub_9"}`)
	p := NewPaymentClient(srv.URL, time.Second)
	contract, client := testContract()

	id, err := p.CreateSubscription(context.Background(), contract, client)
	require.NoError(t, err)
	assert.Equal(t, "sub_9", id)

	body := calls()[0].Body
	assert.Equal(t, contract.VisitAmount(), body["amount"])
	assert.Equal(t, 7.0, body["interval_days"])
	assert.Equal(t, "2026-04-01", body["start_date"])
}

func TestPaymentClient_MissingIDIsAnError(t *testing.T) {
	srv, _ := collaboratorServer(t, http.StatusOK, `{}`)
	p := NewPaymentClient(srv.URL, time.Second)
	contract, client := testContract()

	_, err := p.CreateInvoice(context.Background(), contract, client)
	assert.ErrorIs(t, err, errMissingID)
}

func TestCalendarClient_Lifecycle(t *testing.T) {
	srv, calls := collaboratorServer(t, http.StatusOK, `{"id":"evt/1"}`)
	c := NewCalendarClient(srv.URL, time.Second)
	schedule := model.Schedule{
		ID:        11,
		Title:     "Office cleaning",
		Date:      time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "12:00",
	}

	require.NoError(t, c.DeleteEvent(context.Background(), schedule))
	assert.Empty(t, calls())

	id, err := c.CreateEvent(context.Background(), schedule)
	require.NoError(t, err)
	assert.Equal(t, "evt/1", id)

	schedule.CalendarEventID = id
	require.NoError(t, c.UpdateEvent(context.Background(), schedule))
	require.NoError(t, c.DeleteEvent(context.Background(), schedule))

	got := calls()
	require.Len(t, got, 3)
	assert.Equal(t, "/events", got[0].Path)
	assert.Equal(t, "2026-04-02", got[0].Body["date"])
	assert.Equal(t, "schedule-11", got[0].Body["reference"])
	assert.Equal(t, http.MethodPut, got[1].Method)
	assert.Equal(t, "/events/evt/1", got[1].Path)
	assert.Equal(t, http.MethodDelete, got[2].Method)
}

func TestNew_FallsBackWithoutEndpoints(t *testing.T) {
	set := New(config.CollaboratorConfig{}, zerolog.Nop())

	assert.IsType(t, &LogNotifier{}, set.Notifier)
	assert.IsType(t, &LogCalendar{}, set.Calendar)
	assert.Nil(t, set.Payments)

	require.NoError(t, set.Notifier.Notify(context.Background(), service.EventContractCompleted, service.Recipient{}, nil))
	id, err := set.Calendar.CreateEvent(context.Background(), model.Schedule{ID: 1})
	require.NoError(t, err)
	assert.Empty(t, id)

	set = New(config.CollaboratorConfig{PaymentURL: "http://payments.internal", Timeout: time.Second}, zerolog.Nop())
	assert.IsType(t, &PaymentClient{}, set.Payments)
}
