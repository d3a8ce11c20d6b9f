package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type ClientService struct {
	*core
}

type CreateClientInput struct {
	BusinessName string `json:"business_name" validate:"required,max=255"`
	ContactName  string `json:"contact_name" validate:"max=255"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Address      string `json:"address" validate:"max=500"`
}

func (s *ClientService) Create(ctx context.Context, p model.Principal, input CreateClientInput) (*model.Client, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	client := &model.Client{
		ProviderID:   p.ProviderID,
		BusinessName: input.BusinessName,
		ContactName:  input.ContactName,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		Status:       model.ClientStatusPendingSignature,
	}
	if err := s.Store.Clients.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Client, error) {
	client, err := s.Store.Clients.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "client")
	}
	if !p.CanManage(client.ProviderID) {
		return nil, ErrNotFound
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, p model.Principal, status *model.ClientStatus) ([]model.Client, error) {
	return s.Store.Clients.ListByProvider(ctx, p.ProviderID, status)
}

// SubmitQuoteInput is what a prospective client fills in on the intake form.
type SubmitQuoteInput struct {
	Job           model.JobInput `json:"job"`
	ContractTitle string         `json:"contract_title" validate:"max=255"`
	StartDate     *time.Time     `json:"start_date"`
	EndDate       *time.Time     `json:"end_date"`
	PaymentTerms  string         `json:"payment_terms" validate:"max=255"`
}

type SubmittedQuote struct {
	Client *model.Client     `json:"client"`
	Quote  model.QuoteResult `json:"quote"`
}

// SubmitQuote prices the client's job and queues it for provider review.
func (s *ClientService) SubmitQuote(ctx context.Context, clientID uuid.UUID, input SubmitQuoteInput) (*SubmittedQuote, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.StartDate != nil && input.EndDate != nil && !input.EndDate.After(*input.StartDate) {
		return nil, invalid("end_date must be after start_date")
	}
	client, err := s.Store.Clients.GetByPublicID(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "client")
	}
	if client.Status == model.ClientStatusCancelled {
		return nil, precondition("client is cancelled")
	}
	result, err := s.quoteFor(ctx, client.ProviderID, input.Job)
	if err != nil {
		return nil, err
	}

	title := input.ContractTitle
	if title == "" {
		title = "Cleaning services for " + client.BusinessName
	}
	now := s.now()
	fields := map[string]any{
		"quote_status":                   model.QuoteStatusPendingReview,
		"quote_submitted_at":             now,
		"quote_approved_at":              nil,
		"original_quote_amount":          result.ContractValue(),
		"adjusted_quote_amount":          0,
		"quote_adjustment_notes":         "",
		"pending_contract_title":         title,
		"pending_contract_start_date":    input.StartDate,
		"pending_contract_end_date":      input.EndDate,
		"pending_contract_total_value":   result.ContractValue(),
		"pending_contract_payment_terms": input.PaymentTerms,
		"pending_contract_frequency":     result.Frequency,
	}
	if err := s.Store.Clients.Update(ctx, client.ID, fields); err != nil {
		return nil, err
	}
	client, err = s.Store.Clients.GetByID(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, 0, EventQuoteSubmitted, providerRecipient(client.ProviderID), map[string]any{
		"client_id":   client.PublicID.String(),
		"client_name": client.DisplayName(),
		"amount":      result.ContractValue(),
		"pending":     result.Pending,
	})
	return &SubmittedQuote{Client: client, Quote: result}, nil
}

type QuoteDecision string

const (
	QuoteApprove QuoteDecision = "approve"
	QuoteAdjust  QuoteDecision = "adjust"
	QuoteReject  QuoteDecision = "reject"
)

type ReviewQuoteInput struct {
	Decision QuoteDecision `json:"decision" validate:"required,oneof=approve adjust reject"`
	Amount   float64       `json:"amount" validate:"required_if=Decision adjust,gte=0"`
	Notes    string        `json:"notes" validate:"max=5000"`
}

// ReviewQuote records the provider's decision on a submitted quote. It
// never touches the client's onboarding status.
func (s *ClientService) ReviewQuote(ctx context.Context, p model.Principal, clientID uuid.UUID, input ReviewQuoteInput) (*model.Client, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, p, clientID)
	if err != nil {
		return nil, err
	}
	if client.QuoteStatus != model.QuoteStatusPendingReview {
		return nil, precondition("no quote is awaiting review")
	}

	now := s.now()
	fields := map[string]any{"quote_adjustment_notes": input.Notes}
	switch input.Decision {
	case QuoteApprove:
		fields["quote_status"] = model.QuoteStatusApproved
		fields["quote_approved_at"] = now
	case QuoteAdjust:
		fields["quote_status"] = model.QuoteStatusAdjusted
		fields["quote_approved_at"] = now
		fields["adjusted_quote_amount"] = model.RoundMoney(input.Amount)
		fields["pending_contract_total_value"] = model.RoundMoney(input.Amount)
	case QuoteReject:
		fields["quote_status"] = model.QuoteStatusRejected
	}
	if err := s.Store.Clients.Update(ctx, client.ID, fields); err != nil {
		return nil, err
	}
	client, err = s.Store.Clients.GetByID(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, 0, EventQuoteReviewed, clientRecipient(*client), map[string]any{
		"decision": input.Decision,
		"amount":   client.PendingContractTotalValue,
		"notes":    input.Notes,
	})
	return client, nil
}
