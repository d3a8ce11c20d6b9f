package integration

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

var errMissingID = errors.New("collaborator response carries no id")

type invoiceRequest struct {
	ContractID     string  `json:"contract_id"`
	ContractNumber string  `json:"contract_number"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	CustomerName   string  `json:"customer_name"`
	CustomerEmail  string  `json:"customer_email,omitempty"`
	PaymentTerms   string  `json:"payment_terms,omitempty"`
}

type invoiceResponse struct {
	ID  string `json:"id"`
	URL string `json:"hosted_invoice_url"`
}

type subscriptionRequest struct {
	ContractID    string          `json:"contract_id"`
	Description   string          `json:"description"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Frequency     model.Frequency `json:"frequency"`
	IntervalDays  float64         `json:"interval_days"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
}

type subscriptionResponse struct {
	ID string `json:"id"`
}

// PaymentClient creates deposit invoices and recurring subscriptions.
type PaymentClient struct {
	client webhookClient
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{client: newWebhookClient(baseURL, timeout)}
}

func (p *PaymentClient) CreateInvoice(ctx context.Context, contract model.Contract, client model.Client) (service.InvoiceRef, error) {
	var out invoiceResponse
	err := p.client.do(ctx, http.MethodPost, "/invoices", invoiceRequest{
		ContractID:     contract.PublicID.String(),
		ContractNumber: contract.Number(),
		Description:    contract.Title,
		Amount:         contract.TotalValue,
		Currency:       contract.Currency,
		CustomerName:   client.BusinessName,
		CustomerEmail:  client.Email,
		PaymentTerms:   contract.PaymentTerms,
	}, &out)
	if err != nil {
		return service.InvoiceRef{}, err
	}
	if out.ID == "" {
		return service.InvoiceRef{}, errMissingID
	}
	return service.InvoiceRef{ID: out.ID, URL: out.URL}, nil
}

// CreateSubscription bills the per-visit amount on the contract's cadence.
func (p *PaymentClient) CreateSubscription(ctx context.Context, contract model.Contract, client model.Client) (string, error) {
	req := subscriptionRequest{
		ContractID:    contract.PublicID.String(),
		Description:   contract.Title,
		Amount:        contract.VisitAmount(),
		Currency:      contract.Currency,
		Frequency:     contract.Frequency,
		IntervalDays:  contract.Frequency.VisitInterval().Hours() / 24,
		CustomerName:  client.BusinessName,
		CustomerEmail: client.Email,
	}
	if contract.StartDate != nil {
		req.StartDate = contract.StartDate.Format(time.DateOnly)
	}
	if contract.EndDate != nil {
		req.EndDate = contract.EndDate.Format(time.DateOnly)
	}
	var out subscriptionResponse
	if err := p.client.do(ctx, http.MethodPost, "/subscriptions", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errMissingID
	}
	return out.ID, nil
}
