package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/lock"
	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/monitoring"
	"github.com/nurpe/cleaning-contracts/internal/repository"
)

type Deps struct {
	Store    *repository.Store
	Locker   lock.Locker
	Notifier Notifier
	Payments PaymentGateway
	Calendar Calendar
	Renderer ContractRenderer
	Ledger   LedgerExporter
	Workflow config.WorkflowConfig
	Log      zerolog.Logger
	Now      func() time.Time
}

// Services bundles the workflow services over shared dependencies.
type Services struct {
	Pricing    *PricingService
	Clients    *ClientService
	Contracts  *ContractService
	Scheduling *SchedulingService
	Visits     *VisitService
	Sweep      *SweepService
}

func New(d Deps) *Services {
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	defaults := config.DefaultWorkflow()
	if d.Workflow.ProposalTTL <= 0 {
		d.Workflow.ProposalTTL = defaults.ProposalTTL
	}
	if d.Workflow.VisitBatchLimit <= 0 {
		d.Workflow.VisitBatchLimit = defaults.VisitBatchLimit
	}
	if d.Workflow.VisitLowWatermark <= 0 {
		d.Workflow.VisitLowWatermark = defaults.VisitLowWatermark
	}
	if d.Workflow.InvoiceDueDays <= 0 {
		d.Workflow.InvoiceDueDays = defaults.InvoiceDueDays
	}

	c := &core{Deps: d}
	billing := &billingTrigger{core: c}
	return &Services{
		Pricing:    &PricingService{core: c},
		Clients:    &ClientService{core: c},
		Contracts:  &ContractService{core: c, billing: billing},
		Scheduling: &SchedulingService{core: c, billing: billing},
		Visits:     &VisitService{core: c},
		Sweep:      &SweepService{core: c},
	}
}

type core struct {
	Deps
}

func (c *core) now() time.Time {
	return c.Now().UTC()
}

func (c *core) lockContract(ctx context.Context, contractID uint64) (func(), error) {
	unlock, err := c.Locker.Lock(ctx, lock.ContractKey(contractID))
	if err != nil {
		return nil, fmt.Errorf("lock contract %d: %w", contractID, err)
	}
	return unlock, nil
}

// collaboratorFailed logs, counts and persists a failed external call.
// The triggering transition has already committed and stays committed.
func (c *core) collaboratorFailed(ctx context.Context, collaborator, operation string, contractID uint64, ref string, err error) {
	monitoring.CollaboratorCalls.WithLabelValues(collaborator, operation, "error").Inc()
	c.Log.Error().
		Err(err).
		Str("collaborator", collaborator).
		Str("operation", operation).
		Uint64("contract_id", contractID).
		Str("ref", ref).
		Msg("collaborator call failed")

	failure := &model.CollaboratorFailure{
		Collaborator: collaborator,
		Operation:    operation,
		ContractID:   contractID,
		EntityRef:    ref,
		Message:      truncate(err.Error(), 2000),
	}
	if recErr := c.Store.Failures.Record(context.WithoutCancel(ctx), failure); recErr != nil {
		c.Log.Error().Err(recErr).Uint64("contract_id", contractID).Msg("failed to record collaborator failure")
	}
}

func (c *core) collaboratorSucceeded(collaborator, operation string) {
	monitoring.CollaboratorCalls.WithLabelValues(collaborator, operation, "ok").Inc()
}

func (c *core) notify(ctx context.Context, contractID uint64, kind EventKind, to Recipient, payload map[string]any) {
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.Notify(ctx, kind, to, payload); err != nil {
		c.collaboratorFailed(ctx, collaboratorNotifier, string(kind), contractID, string(to.Party), err)
		return
	}
	c.collaboratorSucceeded(collaboratorNotifier, string(kind))
}

func clientRecipient(client model.Client) Recipient {
	return Recipient{
		Party:      model.PartyClient,
		ProviderID: client.ProviderID,
		Name:       client.DisplayName(),
		Email:      client.Email,
		Phone:      client.Phone,
	}
}

func providerRecipient(providerID uint64) Recipient {
	return Recipient{Party: model.PartyProvider, ProviderID: providerID}
}

func contractPayload(contract model.Contract) map[string]any {
	return map[string]any{
		"contract_id":     contract.PublicID.String(),
		"contract_number": contract.Number(),
		"title":           contract.Title,
		"status":          contract.Status,
	}
}

// loadOwnedContract returns the contract if the principal's provider owns
// it. Foreign contracts look missing.
func loadOwnedContract(ctx context.Context, store *repository.Store, p model.Principal, id uuid.UUID) (*model.Contract, error) {
	contract, err := store.Contracts.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	if !p.CanManage(contract.ProviderID) {
		return nil, fmt.Errorf("%w: contract", ErrNotFound)
	}
	return contract, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func contractTransitioned(to model.ContractStatus) {
	monitoring.ContractTransitions.WithLabelValues(string(to)).Inc()
}
