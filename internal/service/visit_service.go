package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
)

type VisitService struct {
	*core
}

// generateVisits appends up to limit visits after the last generated one,
// or from the contract start date. Generation stops at the end date; a
// one-time contract gets a single visit.
func (c *core) generateVisits(ctx context.Context, tx *repository.Store, contract *model.Contract, limit int) ([]model.Visit, error) {
	if contract.StartDate == nil || limit <= 0 {
		return nil, nil
	}
	recurring := contract.Frequency.IsRecurring()
	interval := contract.Frequency.VisitInterval()

	number := 1
	date := dateOnly(*contract.StartDate)
	last, err := tx.Visits.Last(ctx, contract.ID)
	switch {
	case err == nil:
		if !recurring {
			return nil, nil
		}
		number = last.VisitNumber + 1
		date = last.ScheduledDate.Add(interval)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}

	amount := contract.VisitAmount()
	var visits []model.Visit
	for len(visits) < limit {
		if contract.EndDate != nil && date.After(*contract.EndDate) {
			break
		}
		visits = append(visits, model.Visit{
			ProviderID:    contract.ProviderID,
			ClientID:      contract.ClientID,
			ContractID:    contract.ID,
			VisitNumber:   number,
			Title:         contract.Title,
			ScheduledDate: date,
			Status:        model.VisitScheduled,
			Amount:        amount,
			Photos:        datatypes.NewJSONSlice([]string{}),
		})
		if !recurring {
			break
		}
		number++
		date = date.Add(interval)
	}
	if err := tx.Visits.CreateBatch(ctx, visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// ensureUpcoming refills the look-ahead buffer of an active contract.
func (c *core) ensureUpcoming(ctx context.Context, tx *repository.Store, contract *model.Contract, now time.Time) ([]model.Visit, error) {
	if contract.Status != model.ContractStatusActive {
		return nil, nil
	}
	upcoming, err := tx.Visits.CountUpcoming(ctx, contract.ID, dateOnly(now))
	if err != nil {
		return nil, err
	}
	if upcoming >= int64(c.Workflow.VisitLowWatermark) {
		return nil, nil
	}
	return c.generateVisits(ctx, tx, contract, c.Workflow.VisitBatchLimit)
}

// completeContract moves an active contract to completed and, when the
// client has nothing else open, the client too. It is a no-op for a
// contract that already left active, so the date-driven and visit-driven
// paths can both call it.
func (c *core) completeContract(ctx context.Context, tx *repository.Store, contract *model.Contract) (bool, error) {
	won, err := tx.Contracts.Transition(ctx, contract.ID, model.ContractStatusActive, model.ContractStatusCompleted, nil)
	if err != nil || !won {
		return false, err
	}
	open, err := tx.Contracts.CountOpenForClient(ctx, contract.ClientID)
	if err != nil {
		return false, err
	}
	if open == 0 {
		if _, err := tx.Clients.Advance(ctx, contract.ClientID, model.ClientStatusCompleted); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (c *core) announceCompletion(ctx context.Context, contractID uint64) {
	contractTransitioned(model.ContractStatusCompleted)
	contract, err := c.Store.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return
	}
	client, err := c.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		return
	}
	c.notify(ctx, contract.ID, EventContractCompleted, clientRecipient(*client), contractPayload(*contract))
}

// Generate tops up the visits of an active contract by one batch.
func (s *VisitService) Generate(ctx context.Context, p model.Principal, contractID uuid.UUID) ([]model.Visit, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, contractID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var visits []model.Visit
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if current.Status != model.ContractStatusActive {
			return precondition("visits are generated for active contracts only; contract is %s", current.Status)
		}
		if current.StartDate == nil {
			return precondition("contract has no start date")
		}
		visits, err = s.generateVisits(ctx, tx, current, s.Workflow.VisitBatchLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (s *VisitService) List(ctx context.Context, p model.Principal, filter repository.VisitFilter) ([]model.Visit, error) {
	return s.Store.Visits.List(ctx, p.ProviderID, filter)
}

func (s *VisitService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.Store.Visits.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "visit")
	}
	if !p.CanManage(visit.ProviderID) {
		return nil, notFound(gorm.ErrRecordNotFound, "visit")
	}
	return visit, nil
}

func (s *VisitService) Start(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	won, err := s.Store.Visits.Transition(ctx, visit.ID, model.VisitScheduled, map[string]any{
		"status":     model.VisitInProgress,
		"started_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, &TransitionError{Entity: "visit", From: string(visit.Status), To: string(model.VisitInProgress)}
	}
	return s.Store.Visits.GetByID(ctx, visit.ID)
}

type PhotosInput struct {
	Photos []string `json:"photo_urls" validate:"required,min=1,max=10,dive,required,max=1000"`
}

// AddPhotos attaches photo-proof references to a visit that has not been
// completed yet.
func (s *VisitService) AddPhotos(ctx context.Context, p model.Principal, id uuid.UUID, input PhotosInput) (*model.Visit, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	visit, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if visit.Status.Done() {
		return nil, precondition("visit is already %s", visit.Status)
	}
	photos := append([]string(nil), visit.Photos...)
	photos = append(photos, input.Photos...)
	if len(photos) > model.MaxVisitPhotos {
		return nil, invalid("a visit holds at most %d photos", model.MaxVisitPhotos)
	}
	won, err := s.Store.Visits.Transition(ctx, visit.ID, visit.Status, map[string]any{
		"photos": datatypes.NewJSONSlice(photos),
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, precondition("visit changed concurrently; retry")
	}
	return s.Store.Visits.GetByID(ctx, visit.ID)
}

type CompleteVisitInput struct {
	Photos []string `json:"photo_urls" validate:"max=10,dive,required,max=1000"`
	Notes  string   `json:"completion_notes" validate:"max=2000"`
}

// VisitCompletion is the outcome of completing a visit.
type VisitCompletion struct {
	Visit             *model.Visit   `json:"visit"`
	Invoice           *model.Invoice `json:"invoice,omitempty"`
	ContractCompleted bool           `json:"contract_completed"`
	Generated         int            `json:"visits_generated"`
}

// Complete closes out a delivered visit. It needs 2 to 10 photo
// references, counting those already attached, then bills the visit
// according to the contract's payment setup.
func (s *VisitService) Complete(ctx context.Context, p model.Principal, id uuid.UUID, input CompleteVisitInput) (*VisitCompletion, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	visit, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, visit.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	out := &VisitCompletion{}
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Visits.GetByID(ctx, visit.ID)
		if err != nil {
			return notFound(err, "visit")
		}
		if current.Status != model.VisitInProgress {
			return &TransitionError{Entity: "visit", From: string(current.Status), To: string(model.VisitCompleted)}
		}
		photos := append([]string(nil), current.Photos...)
		photos = append(photos, input.Photos...)
		if len(photos) < model.MinVisitPhotos {
			return precondition("at least %d photos are required to complete a visit, got %d", model.MinVisitPhotos, len(photos))
		}
		if len(photos) > model.MaxVisitPhotos {
			return precondition("a visit holds at most %d photos, got %d", model.MaxVisitPhotos, len(photos))
		}

		contract, err := tx.Contracts.GetByID(ctx, current.ContractID)
		if err != nil {
			return notFound(err, "contract")
		}

		fields := map[string]any{
			"status":           model.VisitCompleted,
			"photos":           datatypes.NewJSONSlice(photos),
			"completed_at":     now,
			"completion_notes": input.Notes,
		}
		switch {
		case contract.SubscriptionID != "":
			fields["status"] = model.VisitPaymentProcessing
			fields["payment_method"] = "subscription"
			fields["payment_status"] = "pending"
		case contract.BillsPerVisit():
			number, err := tx.Invoices.NextNumber(ctx, contract.ProviderID)
			if err != nil {
				return err
			}
			visitRef := current.ID
			invoice := &model.Invoice{
				ProviderID: contract.ProviderID,
				Number:     number,
				ClientID:   contract.ClientID,
				ContractID: contract.ID,
				VisitID:    &visitRef,
				Title:      current.Title,
				Amount:     current.Amount,
				Status:     model.InvoicePending,
				DueDate:    dateOnly(now).AddDate(0, 0, s.Workflow.InvoiceDueDays),
			}
			if err := tx.Invoices.Create(ctx, invoice); err != nil {
				return err
			}
			out.Invoice = invoice
			fields["status"] = model.VisitPaymentProcessing
			fields["payment_method"] = "invoice"
			fields["payment_status"] = "pending"
			fields["invoice_id"] = invoice.ID
		}

		won, err := tx.Visits.Transition(ctx, current.ID, model.VisitInProgress, fields)
		if err != nil {
			return err
		}
		if !won {
			return precondition("visit changed concurrently; retry")
		}

		generated, err := s.ensureUpcoming(ctx, tx, contract, now)
		if err != nil {
			return err
		}
		out.Generated = len(generated)

		outstanding, err := tx.Visits.CountOutstanding(ctx, contract.ID)
		if err != nil {
			return err
		}
		if outstanding == 0 {
			out.ContractCompleted, err = s.completeContract(ctx, tx, contract)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Visit, err = s.Store.Visits.GetByID(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, visit.ContractID, EventVisitCompleted, providerRecipient(visit.ProviderID), map[string]any{
		"visit_id":     visit.PublicID.String(),
		"visit_number": visit.VisitNumber,
		"photo_count":  len(out.Visit.Photos),
	})
	if out.Invoice != nil {
		if client, err := s.Store.Clients.GetByID(ctx, visit.ClientID); err == nil {
			s.notify(ctx, visit.ContractID, EventInvoiceIssued, clientRecipient(*client), map[string]any{
				"invoice_number": out.Invoice.Number,
				"amount":         out.Invoice.Amount,
				"due_date":       out.Invoice.DueDate.Format(time.DateOnly),
			})
		}
	}
	if out.ContractCompleted {
		s.announceCompletion(ctx, visit.ContractID)
	}
	return out, nil
}

// MarkPaid records payment for a billed visit and closes it.
func (s *VisitService) MarkPaid(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if visit.Status != model.VisitCompleted && visit.Status != model.VisitPaymentProcessing {
		return nil, &TransitionError{Entity: "visit", From: string(visit.Status), To: string(model.VisitClosed)}
	}
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		won, err := tx.Visits.Transition(ctx, visit.ID, visit.Status, map[string]any{
			"status":         model.VisitClosed,
			"payment_status": "paid",
			"paid_at":        s.now(),
		})
		if err != nil {
			return err
		}
		if !won {
			return precondition("visit changed concurrently; retry")
		}
		if visit.InvoiceID != nil {
			return tx.Invoices.MarkPaid(ctx, *visit.InvoiceID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Store.Visits.GetByID(ctx, visit.ID)
}

// ExportLedger renders the provider's visits as a spreadsheet.
func (s *VisitService) ExportLedger(ctx context.Context, p model.Principal, filter repository.VisitFilter) ([]byte, error) {
	if s.Ledger == nil {
		return nil, precondition("ledger export is not configured")
	}
	visits, err := s.Store.Visits.List(ctx, p.ProviderID, filter)
	if err != nil {
		return nil, err
	}

	contracts := map[uint64]*model.Contract{}
	clients := map[uint64]*model.Client{}
	invoices := map[uint64]model.Invoice{}
	rows := make([]LedgerRow, 0, len(visits))
	for _, v := range visits {
		contract, ok := contracts[v.ContractID]
		if !ok {
			contract, err = s.Store.Contracts.GetByID(ctx, v.ContractID)
			if err != nil {
				return nil, err
			}
			contracts[v.ContractID] = contract
			list, err := s.Store.Invoices.ListByContract(ctx, v.ContractID)
			if err != nil {
				return nil, err
			}
			for _, inv := range list {
				invoices[inv.ID] = inv
			}
		}
		client, ok := clients[v.ClientID]
		if !ok {
			client, err = s.Store.Clients.GetByID(ctx, v.ClientID)
			if err != nil {
				return nil, err
			}
			clients[v.ClientID] = client
		}
		row := LedgerRow{
			ContractNumber: contract.Number(),
			ContractTitle:  contract.Title,
			ClientName:     client.BusinessName,
			VisitNumber:    v.VisitNumber,
			ScheduledDate:  v.ScheduledDate,
			Status:         v.Status,
			Amount:         v.Amount,
			PaymentStatus:  v.PaymentStatus,
			CompletedAt:    v.CompletedAt,
			PhotoCount:     len(v.Photos),
		}
		if v.InvoiceID != nil {
			row.InvoiceNumber = invoices[*v.InvoiceID].Number
		}
		rows = append(rows, row)
	}
	return s.Ledger.ExportVisits(rows)
}
