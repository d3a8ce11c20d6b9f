package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
)

type ContractService struct {
	*core
	billing *billingTrigger
}

type CreateContractInput struct {
	ClientID     uuid.UUID       `json:"client_id" validate:"required"`
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description" validate:"max=2000"`
	Frequency    string          `json:"frequency" validate:"max=30"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	TotalValue   float64         `json:"total_value" validate:"gte=0"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	PaymentTerms string          `json:"payment_terms" validate:"max=255"`
	Terms        string          `json:"terms_conditions" validate:"max=5000"`
	Job          *model.JobInput `json:"job"`
}

// ContractDetails is a contract together with what it is waiting on.
type ContractDetails struct {
	Contract   *model.Contract            `json:"contract"`
	Client     *model.Client              `json:"client"`
	Proposals  []model.SchedulingProposal `json:"proposals"`
	Schedules  []model.Schedule           `json:"schedules"`
	NextAction string                     `json:"next_action,omitempty"`
}

func (s *ContractService) Create(ctx context.Context, p model.Principal, input CreateContractInput) (*model.Contract, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	client, err := s.Store.Clients.GetByPublicID(ctx, input.ClientID)
	if err != nil {
		return nil, notFound(err, "client")
	}
	if !p.CanManage(client.ProviderID) {
		return nil, fmt.Errorf("%w: client", ErrNotFound)
	}
	if client.Status == model.ClientStatusCancelled {
		return nil, precondition("client is cancelled")
	}

	contract := &model.Contract{
		ProviderID:       p.ProviderID,
		ClientID:         client.ID,
		Title:            input.Title,
		Description:      input.Description,
		Status:           model.ContractStatusNew,
		OnboardingStatus: model.OnboardingPendingSignature,
		Frequency:        model.ParseFrequency(input.Frequency),
		StartDate:        utcPtr(input.StartDate),
		EndDate:          utcPtr(input.EndDate),
		TotalValue:       model.RoundMoney(input.TotalValue),
		Currency:         currencyOrDefault(input.Currency),
		PaymentTerms:     input.PaymentTerms,
		Terms:            input.Terms,
	}
	if input.Job != nil {
		result, err := s.quoteFor(ctx, p.ProviderID, *input.Job)
		if err != nil {
			return nil, err
		}
		contract.Quote = datatypes.NewJSONType(result)
		if contract.TotalValue == 0 {
			contract.TotalValue = result.ContractValue()
		}
		if input.Frequency == "" {
			contract.Frequency = result.Frequency
		}
	}
	if err := s.Store.Contracts.Create(ctx, contract); err != nil {
		return nil, err
	}
	contractTransitioned(model.ContractStatusNew)
	return contract, nil
}

// CreateFromQuote turns a reviewed client quote into a contract draft.
func (s *ContractService) CreateFromQuote(ctx context.Context, p model.Principal, clientID uuid.UUID) (*model.Contract, error) {
	client, err := s.Store.Clients.GetByPublicID(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "client")
	}
	if !p.CanManage(client.ProviderID) {
		return nil, fmt.Errorf("%w: client", ErrNotFound)
	}
	if client.QuoteStatus != model.QuoteStatusApproved && client.QuoteStatus != model.QuoteStatusAdjusted {
		return nil, precondition("the client's quote has not been approved")
	}

	contract := &model.Contract{
		ProviderID:       p.ProviderID,
		ClientID:         client.ID,
		Title:            client.PendingContractTitle,
		Status:           model.ContractStatusNew,
		OnboardingStatus: model.OnboardingPendingSignature,
		Frequency:        client.PendingContractFrequency,
		StartDate:        utcPtr(client.PendingContractStartDate),
		EndDate:          utcPtr(client.PendingContractEndDate),
		TotalValue:       model.RoundMoney(client.PendingContractTotalValue),
		Currency:         currencyOrDefault(""),
		PaymentTerms:     client.PendingContractPaymentTerms,
	}
	if contract.Title == "" {
		contract.Title = "Cleaning services for " + client.BusinessName
	}
	if contract.Frequency == "" {
		contract.Frequency = model.FrequencyWeekly
	}
	if err := s.Store.Contracts.Create(ctx, contract); err != nil {
		return nil, err
	}
	contractTransitioned(model.ContractStatusNew)
	return contract, nil
}

func (s *ContractService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*ContractDetails, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, contract)
}

// GetForClient is the view behind the client's signing link.
func (s *ContractService) GetForClient(ctx context.Context, id uuid.UUID) (*ContractDetails, error) {
	contract, err := s.Store.Contracts.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	return s.details(ctx, contract)
}

func (s *ContractService) details(ctx context.Context, contract *model.Contract) (*ContractDetails, error) {
	client, err := s.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, notFound(err, "client")
	}
	proposals, err := s.Store.Proposals.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.Store.Schedules.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	return &ContractDetails{
		Contract:   contract,
		Client:     client,
		Proposals:  proposals,
		Schedules:  schedules,
		NextAction: NextAction(*contract, proposals, schedules),
	}, nil
}

func (s *ContractService) List(ctx context.Context, p model.Principal, filter repository.ContractFilter) ([]model.Contract, error) {
	return s.Store.Contracts.ListByProvider(ctx, p.ProviderID, filter)
}

type SignInput struct {
	Signature string `json:"signature" validate:"required,max=1000"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SignAsProvider records the provider's signature.
func (s *ContractService) SignAsProvider(ctx context.Context, p model.Principal, id uuid.UUID, input SignInput) (*model.Contract, error) {
	if p.Role != model.RoleProvider {
		return nil, ErrPermissionDenied
	}
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, contract.ID, model.PartyProvider, input)
}

// SignAsClient records the client's signature from the public link.
func (s *ContractService) SignAsClient(ctx context.Context, id uuid.UUID, input SignInput) (*model.Contract, error) {
	contract, err := s.Store.Contracts.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	return s.sign(ctx, contract.ID, model.PartyClient, input)
}

func (s *ContractService) sign(ctx context.Context, contractID uint64, party model.Party, input SignInput) (*model.Contract, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	var fullySigned bool
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		contract, err := tx.Contracts.GetByID(ctx, contractID)
		if err != nil {
			return notFound(err, "contract")
		}
		if contract.Status != model.ContractStatusNew {
			return precondition("contract is %s and no longer accepts signatures", contract.Status)
		}

		prefix := "provider_signature_"
		own, other := contract.ProviderSignature, contract.ClientSignature
		if party == model.PartyClient {
			prefix = "client_signature_"
			own, other = contract.ClientSignature, contract.ProviderSignature
			if contract.RevisionRequested {
				return precondition("a revision is pending; wait for the provider to update the contract")
			}
		}
		if own.Present() {
			return precondition("the %s has already signed this contract", party)
		}

		fields := map[string]any{
			prefix + "image_ref":  input.Signature,
			prefix + "signed_at":  now,
			prefix + "ip":         truncate(input.IP, 45),
			prefix + "user_agent": truncate(input.UserAgent, 500),
		}
		if party == model.PartyProvider && contract.RevisionRequested {
			fields["revision_requested"] = false
		}
		if err := tx.Contracts.Update(ctx, contractID, fields); err != nil {
			return err
		}
		if !other.Present() {
			return nil
		}

		won, err := tx.Contracts.MarkFullySigned(ctx, contractID, now)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		fullySigned = true
		_, err = tx.Clients.Advance(ctx, contract.ClientID, model.ClientStatusNewLead)
		return err
	})
	if err != nil {
		return nil, err
	}

	contract, err := s.Store.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	client, err := s.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, err
	}

	switch {
	case fullySigned:
		contractTransitioned(model.ContractStatusSigned)
		s.fullyExecuted(ctx, *contract, *client)
	case party == model.PartyProvider:
		s.notify(ctx, contract.ID, EventSignatureRequested, clientRecipient(*client), contractPayload(*contract))
	default:
		s.notify(ctx, contract.ID, EventClientSigned, providerRecipient(contract.ProviderID), contractPayload(*contract))
	}
	return contract, nil
}

// fullyExecuted renders the signed document and tells both parties.
func (s *ContractService) fullyExecuted(ctx context.Context, contract model.Contract, client model.Client) {
	payload := contractPayload(contract)
	if s.Renderer != nil {
		pdf, err := s.Renderer.RenderContract(contract, client)
		if err != nil {
			s.collaboratorFailed(ctx, collaboratorRenderer, "render_contract", contract.ID, contract.PublicID.String(), err)
		} else {
			s.collaboratorSucceeded(collaboratorRenderer, "render_contract")
			payload["contract_pdf"] = pdf
		}
	}
	s.notify(ctx, contract.ID, EventContractFullySigned, clientRecipient(client), payload)
	s.notify(ctx, contract.ID, EventContractFullySigned, providerRecipient(contract.ProviderID), payload)
}

type RevisionInput struct {
	Type  model.RevisionType `json:"revision_type" validate:"required,oneof=pricing scope both"`
	Notes string             `json:"revision_notes" validate:"required,max=2000"`
}

// RequestRevision lets the client ask for changes before the provider
// signs. Each request bumps revision_count.
func (s *ContractService) RequestRevision(ctx context.Context, id uuid.UUID, input RevisionInput) (*model.Contract, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	contract, err := s.Store.Contracts.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if current.Status != model.ContractStatusNew {
			return precondition("revisions can only be requested before the contract is signed")
		}
		if current.ProviderSignature.Present() {
			return precondition("the provider has already signed; contact them directly")
		}
		return tx.Contracts.Update(ctx, current.ID, map[string]any{
			"revision_requested":    true,
			"revision_type":         input.Type,
			"revision_notes":        input.Notes,
			"revision_requested_at": s.now(),
			"revision_count":        current.RevisionCount + 1,
		})
	})
	if err != nil {
		return nil, err
	}

	contract, err = s.Store.Contracts.GetByID(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	payload := contractPayload(*contract)
	payload["revision_type"] = input.Type
	payload["revision_notes"] = input.Notes
	s.notify(ctx, contract.ID, EventRevisionRequested, providerRecipient(contract.ProviderID), payload)
	return contract, nil
}

type UpdateContractInput struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	TotalValue   *float64   `json:"total_value" validate:"omitempty,gte=0"`
	PaymentTerms *string    `json:"payment_terms" validate:"omitempty,max=255"`
	Terms        *string    `json:"terms_conditions" validate:"omitempty,max=5000"`
}

// UpdateTerms edits an unsigned contract. A client signature given on the
// old terms is withdrawn and any pending revision request is cleared.
func (s *ContractService) UpdateTerms(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateContractInput) (*model.Contract, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if current.Status != model.ContractStatusNew {
			return precondition("only unsigned contracts can be edited")
		}
		start, end := current.StartDate, current.EndDate
		if input.StartDate != nil {
			start = utcPtr(input.StartDate)
		}
		if input.EndDate != nil {
			end = utcPtr(input.EndDate)
		}
		if err := checkDates(start, end); err != nil {
			return err
		}

		fields := map[string]any{
			"start_date":         start,
			"end_date":           end,
			"revision_requested": false,
		}
		if input.Title != nil {
			fields["title"] = *input.Title
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.TotalValue != nil {
			fields["total_value"] = model.RoundMoney(*input.TotalValue)
		}
		if input.PaymentTerms != nil {
			fields["payment_terms"] = *input.PaymentTerms
		}
		if input.Terms != nil {
			fields["terms"] = *input.Terms
		}
		if current.ClientSignature.Present() {
			fields["client_signature_image_ref"] = ""
			fields["client_signature_signed_at"] = nil
			fields["client_signature_ip"] = ""
			fields["client_signature_user_agent"] = ""
		}
		return tx.Contracts.Update(ctx, current.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.Store.Contracts.GetByID(ctx, contract.ID)
}

// UpdateStatus is the manual status endpoint. Only cancellation can be
// requested by hand; every other status is reached through its workflow.
func (s *ContractService) UpdateStatus(ctx context.Context, p model.Principal, id uuid.UUID, target string, reason string) (*model.Contract, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	to, ok := model.ParseContractStatus(target)
	if !ok {
		return nil, invalid("unknown contract status %q", target)
	}
	if to == contract.Status {
		return contract, nil
	}
	if to != model.ContractStatusCancelled {
		return nil, &TransitionError{Entity: "contract", From: string(contract.Status), To: string(to)}
	}
	return s.Cancel(ctx, p, id, reason)
}

func (s *ContractService) Cancel(ctx context.Context, p model.Principal, id uuid.UUID, reason string) (*model.Contract, error) {
	if p.Role != model.RoleProvider {
		return nil, ErrPermissionDenied
	}
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var withEvents []model.Schedule
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if current.Status.IsTerminal() {
			return &TransitionError{Entity: "contract", From: string(current.Status), To: string(model.ContractStatusCancelled)}
		}
		won, err := tx.Contracts.Transition(ctx, current.ID, current.Status, model.ContractStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !won {
			return precondition("contract changed concurrently; retry")
		}
		if _, err := tx.Clients.Cancel(ctx, current.ClientID); err != nil {
			return err
		}
		if open, err := tx.Proposals.FindOpen(ctx, current.ID); err == nil {
			if _, err := tx.Proposals.Transition(ctx, open.ID, open.Status, map[string]any{"status": model.ProposalRejected}); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		schedules, err := tx.Schedules.ListByContract(ctx, current.ID)
		if err != nil {
			return err
		}
		for _, sched := range schedules {
			if sched.Status == model.ScheduleStatusCompleted || sched.Status == model.ScheduleStatusCancelled {
				continue
			}
			if err := tx.Schedules.Update(ctx, sched.ID, map[string]any{"status": model.ScheduleStatusCancelled}); err != nil {
				return err
			}
			if sched.CalendarEventID != "" {
				withEvents = append(withEvents, sched)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	contractTransitioned(model.ContractStatusCancelled)

	for _, sched := range withEvents {
		s.deleteCalendarEvent(ctx, sched)
	}

	contract, err = s.Store.Contracts.GetByID(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	client, err := s.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, err
	}
	payload := contractPayload(*contract)
	payload["reason"] = reason
	s.notify(ctx, contract.ID, EventContractCancelled, clientRecipient(*client), payload)
	return contract, nil
}

// Delete removes a contract that is not in service, with everything it
// owns.
func (s *ContractService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if p.Role != model.RoleProvider {
		return ErrPermissionDenied
	}
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return err
	}
	if contract.Status == model.ContractStatusSigned || contract.Status == model.ContractStatusActive {
		return precondition("cancel the contract before deleting it")
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Invoices.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		if err := tx.Visits.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		if err := tx.Schedules.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		if err := tx.Proposals.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		if err := tx.Failures.DeleteByContract(ctx, contract.ID); err != nil {
			return err
		}
		return tx.Contracts.Delete(ctx, contract.ID)
	})
}

// RenderPDF renders the contract document on demand.
func (s *ContractService) RenderPDF(ctx context.Context, p model.Principal, id uuid.UUID) ([]byte, string, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, "", err
	}
	if s.Renderer == nil {
		return nil, "", precondition("document rendering is not configured")
	}
	client, err := s.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, "", notFound(err, "client")
	}
	pdf, err := s.Renderer.RenderContract(*contract, *client)
	if err != nil {
		return nil, "", fmt.Errorf("render contract: %w", err)
	}
	return pdf, fmt.Sprintf("%s.pdf", contract.Number()), nil
}

// ResendInvoice re-sends the deposit invoice link to the client, creating
// the invoice first if an earlier attempt failed.
func (s *ContractService) ResendInvoice(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Contract, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	if contract.OnboardingStatus != model.OnboardingCompleted {
		return nil, precondition("no schedule has been accepted for this contract yet")
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if contract.InvoiceID == "" {
		s.billing.run(ctx, contract.ID)
		return s.Store.Contracts.GetByID(ctx, contract.ID)
	}
	client, err := s.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return nil, err
	}
	s.billing.announceInvoice(ctx, *contract, *client)
	return contract, nil
}

// RetryBilling re-runs the billing trigger after collaborator failures.
// Already-created invoices and subscriptions are left alone.
func (s *ContractService) RetryBilling(ctx context.Context, p model.Principal, id uuid.UUID) (*BillingOutcome, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	if contract.OnboardingStatus != model.OnboardingCompleted {
		return nil, precondition("no schedule has been accepted for this contract yet")
	}
	if contract.Status.IsTerminal() {
		return nil, precondition("contract is %s", contract.Status)
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	outcome := s.billing.run(ctx, contract.ID)
	return &outcome, nil
}

func (s *ContractService) ListFailures(ctx context.Context, p model.Principal, id uuid.UUID) ([]model.CollaboratorFailure, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, id)
	if err != nil {
		return nil, err
	}
	return s.Store.Failures.ListOpen(ctx, &contract.ID)
}

// NextAction describes what a contract is waiting on, for dashboards.
func NextAction(c model.Contract, proposals []model.SchedulingProposal, schedules []model.Schedule) string {
	switch c.Status {
	case model.ContractStatusCompleted, model.ContractStatusCancelled:
		return ""
	case model.ContractStatusActive:
		return "Service in progress: complete visits as they come due"
	case model.ContractStatusNew:
		switch {
		case c.RevisionRequested:
			return "Client requested a revision: update the contract terms"
		case !c.ProviderSignature.Present():
			return "Sign the contract to send it to the client"
		case !c.ClientSignature.Present():
			return "Waiting for the client to sign"
		}
		return ""
	}

	for _, sched := range schedules {
		switch sched.ApprovalStatus {
		case model.ApprovalPending, model.ApprovalClientCounter:
			if sched.Status != model.ScheduleStatusCancelled {
				return "Accept the client's requested schedule"
			}
		case model.ApprovalChangeRequested:
			return "Waiting for the client to respond to your schedule change"
		}
	}
	for _, prop := range proposals {
		switch prop.Status {
		case model.ProposalPending:
			return "Waiting for the client to pick a time slot"
		case model.ProposalCountered:
			return "Client countered: send new time slots"
		}
	}
	if c.OnboardingStatus == model.OnboardingCompleted {
		return "Waiting for the service start date"
	}
	return "Propose service times to the client"
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return invalid("end_date must be after start_date")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func currencyOrDefault(code string) string {
	if code == "" {
		return "USD"
	}
	return strings.ToUpper(code)
}
