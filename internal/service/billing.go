package service

import (
	"context"
	"time"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

// BillingOutcome reports what a billing trigger run created.
type BillingOutcome struct {
	InvoiceCreated      bool `json:"invoice_created"`
	SubscriptionCreated bool `json:"subscription_created"`
	Failed              bool `json:"failed"`
}

// billingTrigger issues the deposit invoice and, for recurring contracts,
// the subscription. It runs after schedule acceptance has committed and is
// idempotent: stored ids short-circuit the collaborator calls.
type billingTrigger struct {
	*core
}

// run must be called with the contract lock held.
func (b *billingTrigger) run(ctx context.Context, contractID uint64) BillingOutcome {
	var outcome BillingOutcome

	contract, err := b.Store.Contracts.GetByID(ctx, contractID)
	if err != nil {
		b.Log.Error().Err(err).Uint64("contract_id", contractID).Msg("billing trigger could not load contract")
		outcome.Failed = true
		return outcome
	}
	client, err := b.Store.Clients.GetByID(ctx, contract.ClientID)
	if err != nil {
		b.Log.Error().Err(err).Uint64("contract_id", contractID).Msg("billing trigger could not load client")
		outcome.Failed = true
		return outcome
	}
	if b.Payments == nil {
		return outcome
	}

	if contract.InvoiceID == "" {
		ref, err := b.Payments.CreateInvoice(ctx, *contract, *client)
		if err != nil {
			b.collaboratorFailed(ctx, collaboratorPayment, "create_invoice", contract.ID, contract.PublicID.String(), err)
			outcome.Failed = true
		} else {
			b.collaboratorSucceeded(collaboratorPayment, "create_invoice")
			now := b.now()
			if err := b.Store.Contracts.Update(ctx, contract.ID, map[string]any{
				"invoice_id":         ref.ID,
				"invoice_url":        ref.URL,
				"invoice_created_at": now,
			}); err != nil {
				b.Log.Error().Err(err).Uint64("contract_id", contract.ID).Str("invoice_id", ref.ID).
					Msg("invoice created but not stored; record it manually")
				outcome.Failed = true
			} else {
				outcome.InvoiceCreated = true
				contract.InvoiceID, contract.InvoiceURL, contract.InvoiceCreatedAt = ref.ID, ref.URL, &now
				b.resolveFailures(ctx, contract.ID, "create_invoice", now)
				b.announceInvoice(ctx, *contract, *client)
			}
		}
	}

	if contract.Frequency.IsRecurring() && contract.SubscriptionID == "" {
		subID, err := b.Payments.CreateSubscription(ctx, *contract, *client)
		if err != nil {
			b.collaboratorFailed(ctx, collaboratorPayment, "create_subscription", contract.ID, contract.PublicID.String(), err)
			outcome.Failed = true
		} else {
			b.collaboratorSucceeded(collaboratorPayment, "create_subscription")
			if err := b.Store.Contracts.Update(ctx, contract.ID, map[string]any{"subscription_id": subID}); err != nil {
				b.Log.Error().Err(err).Uint64("contract_id", contract.ID).Str("subscription_id", subID).
					Msg("subscription created but not stored; record it manually")
				outcome.Failed = true
			} else {
				outcome.SubscriptionCreated = true
				b.resolveFailures(ctx, contract.ID, "create_subscription", b.now())
			}
		}
	}
	return outcome
}

func (b *billingTrigger) announceInvoice(ctx context.Context, contract model.Contract, client model.Client) {
	payload := contractPayload(contract)
	payload["invoice_id"] = contract.InvoiceID
	payload["invoice_url"] = contract.InvoiceURL
	payload["amount"] = contract.TotalValue
	b.notify(ctx, contract.ID, EventInvoiceIssued, clientRecipient(client), payload)
}

func (b *billingTrigger) resolveFailures(ctx context.Context, contractID uint64, operation string, at time.Time) {
	if err := b.Store.Failures.Resolve(ctx, contractID, operation, at); err != nil {
		b.Log.Warn().Err(err).Uint64("contract_id", contractID).Str("operation", operation).
			Msg("failed to mark collaborator failures resolved")
	}
}
