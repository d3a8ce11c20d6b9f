package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

func TestRenderContract(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	signedAt := start.Add(-48 * time.Hour)

	contract := model.Contract{
		PublicID:     uuid.MustParse("6f1c2a9e-0000-4000-8000-000000000001"),
		Title:        "Office cleaning – floors 2 & 3",
		Status:       model.ContractStatusNew,
		Frequency:    model.FrequencyWeekly,
		StartDate:    &start,
		EndDate:      &end,
		TotalValue:   3120,
		Currency:     "USD",
		PaymentTerms: "Net 15",
		Terms:        "Client provides building access before 8am.",
		Quote: datatypes.NewJSONType(model.QuoteResult{
			PricingModel: model.PricingPerArea,
			BasePrice:    140,
			Discounts:    []model.AppliedDiscount{{Kind: "frequency", Amount: 14}},
			Addons:       []model.AddonLine{{Name: "Window cleaning", Quantity: 2, TotalPrice: 30}},
			FinalPrice:   156,
		}),
		ProviderSignature: model.Signature{ImageRef: "provider.png", SignedAt: &signedAt},
		CreatedAt:         signedAt,
	}
	client := model.Client{BusinessName: "Café Lumière", ContactName: "Zoë", Email: "zoe@example.com"}

	out, err := NewGenerator().RenderContract(contract, client)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestRenderContractWithoutQuote(t *testing.T) {
	contract := model.Contract{
		PublicID:   uuid.New(),
		Title:      "One-off deep clean",
		Status:     model.ContractStatusSigned,
		TotalValue: 450,
		Currency:   "USD",
	}
	out, err := NewGenerator().RenderContract(contract, model.Client{BusinessName: "Acme"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
