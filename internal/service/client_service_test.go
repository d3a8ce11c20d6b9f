package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

func savePerAreaPricing(t *testing.T, h *harness) {
	t.Helper()
	_, err := h.svc.Pricing.SaveConfig(h.ctx, provider, model.PricingConfig{
		Model:          model.PricingPerArea,
		RatePerArea:    0.10,
		MinimumCharge:  50,
		DiscountWeekly: 10,
	})
	require.NoError(t, err)
}

func TestPricing_SaveAndPreview(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Pricing.Preview(h.ctx, provider, model.JobInput{Size: 300})
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = h.svc.Pricing.SaveConfig(h.ctx, provider, model.PricingConfig{Model: "per-room"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.Pricing.SaveConfig(h.ctx, provider, model.PricingConfig{Model: model.PricingPerArea, DiscountWeekly: 120})
	assert.ErrorIs(t, err, ErrInvalidInput)

	staff := model.Principal{UserID: 3, ProviderID: provider.ProviderID, Role: model.RoleStaff}
	_, err = h.svc.Pricing.SaveConfig(h.ctx, staff, model.PricingConfig{Model: model.PricingPerArea})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	savePerAreaPricing(t, h)
	cfg, err := h.svc.Pricing.GetConfig(h.ctx, provider)
	require.NoError(t, err)
	assert.Equal(t, model.HourlyRateGeneral, cfg.HourlyRateMode)

	got, err := h.svc.Pricing.Preview(h.ctx, provider, model.JobInput{Size: 300, Frequency: "weekly"})
	require.NoError(t, err)
	assert.Equal(t, 45.0, got.FinalPrice)

	_, err = h.svc.Pricing.GetConfig(h.ctx, stranger)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteReview_ApproveThenCreateContract(t *testing.T) {
	h := newHarness(t)
	savePerAreaPricing(t, h)
	client, err := h.svc.Clients.Create(h.ctx, provider, CreateClientInput{BusinessName: "Bright Smiles"})
	require.NoError(t, err)

	_, err = h.svc.Contracts.CreateFromQuote(h.ctx, provider, client.PublicID)
	assert.ErrorIs(t, err, ErrPrecondition)

	submitted, err := h.svc.Clients.SubmitQuote(h.ctx, client.PublicID, SubmitQuoteInput{
		Job: model.JobInput{Size: 300, Frequency: "weekly", TermDuration: 3, TermUnit: "months"},
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0, submitted.Quote.FinalPrice)
	assert.Equal(t, 540.0, submitted.Quote.TotalTermValue)
	assert.Equal(t, model.QuoteStatusPendingReview, submitted.Client.QuoteStatus)
	assert.Equal(t, 540.0, submitted.Client.OriginalQuoteAmount)
	assert.Equal(t, model.ClientStatusPendingSignature, submitted.Client.Status)
	assert.Equal(t, 1, h.notifier.count(EventQuoteSubmitted))

	reviewed, err := h.svc.Clients.ReviewQuote(h.ctx, provider, client.PublicID, ReviewQuoteInput{Decision: QuoteApprove})
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusApproved, reviewed.QuoteStatus)
	assert.Equal(t, model.ClientStatusPendingSignature, reviewed.Status)

	_, err = h.svc.Clients.ReviewQuote(h.ctx, provider, client.PublicID, ReviewQuoteInput{Decision: QuoteReject})
	assert.ErrorIs(t, err, ErrPrecondition)

	contract, err := h.svc.Contracts.CreateFromQuote(h.ctx, provider, client.PublicID)
	require.NoError(t, err)
	assert.Equal(t, 540.0, contract.TotalValue)
	assert.Equal(t, model.FrequencyWeekly, contract.Frequency)
	assert.Equal(t, "Cleaning services for Bright Smiles", contract.Title)
	assert.Equal(t, model.ContractStatusNew, contract.Status)
	assert.Equal(t, model.OnboardingPendingSignature, contract.OnboardingStatus)
}

func TestQuoteReview_AdjustRequiresAmount(t *testing.T) {
	h := newHarness(t)
	savePerAreaPricing(t, h)
	client, err := h.svc.Clients.Create(h.ctx, provider, CreateClientInput{BusinessName: "Bright Smiles"})
	require.NoError(t, err)
	_, err = h.svc.Clients.SubmitQuote(h.ctx, client.PublicID, SubmitQuoteInput{Job: model.JobInput{Size: 300}})
	require.NoError(t, err)

	_, err = h.svc.Clients.ReviewQuote(h.ctx, provider, client.PublicID, ReviewQuoteInput{Decision: QuoteAdjust})
	assert.ErrorIs(t, err, ErrInvalidInput)

	adjusted, err := h.svc.Clients.ReviewQuote(h.ctx, provider, client.PublicID, ReviewQuoteInput{
		Decision: QuoteAdjust,
		Amount:   499.999,
		Notes:    "loyalty discount",
	})
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusAdjusted, adjusted.QuoteStatus)
	assert.Equal(t, 500.0, adjusted.AdjustedQuoteAmount)
	assert.Equal(t, 500.0, adjusted.PendingContractTotalValue)
	assert.Equal(t, 1, h.notifier.count(EventQuoteReviewed))
}

func TestContractCreate_EmbedsQuote(t *testing.T) {
	h := newHarness(t)
	savePerAreaPricing(t, h)
	client, err := h.svc.Clients.Create(h.ctx, provider, CreateClientInput{BusinessName: "Bright Smiles"})
	require.NoError(t, err)

	contract, err := h.svc.Contracts.Create(h.ctx, provider, CreateContractInput{
		ClientID: client.PublicID,
		Title:    "Lobby",
		Job:      &model.JobInput{Size: 300, Frequency: "weekly"},
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0, contract.TotalValue)
	assert.Equal(t, model.FrequencyWeekly, contract.Frequency)
	assert.Equal(t, 45.0, contract.Quote.Data().FinalPrice)
	assert.Equal(t, "USD", contract.Currency)

	_, err = h.svc.Contracts.Create(h.ctx, provider, CreateContractInput{ClientID: client.PublicID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.svc.Contracts.Create(h.ctx, stranger, CreateContractInput{ClientID: client.PublicID, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
