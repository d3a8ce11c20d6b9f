package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

func TestCalculate_PerAreaMinimumThenWeeklyDiscount(t *testing.T) {
	cfg := model.PricingConfig{
		Model:          model.PricingPerArea,
		RatePerArea:    0.10,
		MinimumCharge:  50,
		DiscountWeekly: 10,
	}

	got := Calculate(cfg, model.JobInput{Size: 300, Frequency: "weekly"})

	assert.Equal(t, 50.0, got.BasePrice)
	require.Len(t, got.Discounts, 1)
	assert.Equal(t, 5.0, got.Discounts[0].Amount)
	assert.Equal(t, 45.0, got.DiscountedBase)
	assert.Empty(t, got.Addons)
	assert.Equal(t, 45.0, got.FinalPrice)
	assert.False(t, got.Pending)
	assert.Empty(t, got.UsedFallback)
}

func TestCalculate_SizeTieredNearestNeighbour(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.PricingConfig
		size int
		want float64
	}{
		{"medium falls to large", model.PricingConfig{FlatRateLarge: 200}, 1800, 200},
		{"small falls to medium", model.PricingConfig{FlatRateMedium: 150, FlatRateLarge: 200}, 900, 150},
		{"large falls to medium", model.PricingConfig{FlatRateSmall: 90, FlatRateMedium: 150}, 3000, 150},
		{"exact tier", model.PricingConfig{FlatRateSmall: 90, FlatRateMedium: 150, FlatRateLarge: 200}, 2000, 150},
		{"legacy flat rate", model.PricingConfig{FlatRate: 120}, 2000, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Model = model.PricingSizeTieredFlat
			got := Calculate(tt.cfg, model.JobInput{Size: tt.size, Frequency: "one-time"})
			assert.Equal(t, tt.want, got.BasePrice)
			assert.Equal(t, tt.want, got.FinalPrice)
		})
	}
}

func TestCalculate_Hourly(t *testing.T) {
	cfg := model.PricingConfig{
		Model:            model.PricingPerHour,
		HourlyRate:       40,
		TimeSmallJob:     2,
		TimeLargeJob:     5,
		CleanersLargeJob: 3,
	}

	general := Calculate(cfg, model.JobInput{Size: 1000, Frequency: "one-time"})
	assert.Equal(t, 80.0, general.BasePrice)
	assert.Equal(t, 2.0, general.EstimatedHours)
	assert.Equal(t, 1, general.Cleaners)

	cfg.HourlyRateMode = model.HourlyRatePerCleaner
	perCleaner := Calculate(cfg, model.JobInput{Size: 3000, Frequency: "one-time"})
	assert.Equal(t, 600.0, perCleaner.BasePrice)
	assert.Equal(t, 3, perCleaner.Cleaners)
}

func TestCalculate_FallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		cfg      model.PricingConfig
		size     int
		fallback string
		base     float64
	}{
		{
			name:     "per-area without rate uses tiered flat",
			cfg:      model.PricingConfig{Model: model.PricingPerArea, FlatRateSmall: 80},
			size:     700,
			fallback: "size_tiered_flat",
			base:     80,
		},
		{
			name:     "hourly without rate uses legacy flat",
			cfg:      model.PricingConfig{Model: model.PricingPerHour, FlatRate: 95},
			size:     700,
			fallback: "flat",
			base:     95,
		},
		{
			name:     "flat without rates uses hourly ladder",
			cfg:      model.PricingConfig{Model: model.PricingSizeTieredFlat, HourlyRate: 30},
			size:     2000,
			fallback: "hourly",
			base:     105,
		},
		{
			name:     "hourly fallback with no size assumes two hours",
			cfg:      model.PricingConfig{Model: model.PricingPerArea, HourlyRate: 30},
			size:     0,
			fallback: "hourly",
			base:     60,
		},
		{
			name:     "package without selection uses per-area",
			cfg:      model.PricingConfig{Model: model.PricingFixedPackage, RatePerArea: 0.05},
			size:     2000,
			fallback: "sqft",
			base:     100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.cfg, model.JobInput{Size: tt.size, Frequency: "one-time"})
			assert.Equal(t, tt.fallback, got.UsedFallback)
			assert.Equal(t, tt.base, got.BasePrice)
			assert.False(t, got.Pending)
		})
	}
}

func TestCalculate_NothingConfiguredIsPending(t *testing.T) {
	got := Calculate(model.PricingConfig{Model: model.PricingPerArea}, model.JobInput{Size: 1200})

	assert.True(t, got.Pending)
	assert.Zero(t, got.FinalPrice)
	assert.Equal(t, model.FrequencyWeekly, got.Frequency)
}

func TestCalculate_Packages(t *testing.T) {
	cfg := model.PricingConfig{
		Model:         model.PricingFixedPackage,
		MinimumCharge: 500,
		RatePerArea:   0.2,
		Packages: []model.Package{
			{ID: "basic", Name: "Basic", PriceType: model.PackagePriceFlat, Price: 150, DurationMinutes: 90},
			{ID: "deep", Name: "Deep", PriceType: model.PackagePriceRange, PriceMin: 200, PriceMax: 300},
			{ID: "custom", Name: "Custom", PriceType: model.PackagePriceQuote},
		},
	}

	t.Run("flat package obeys minimum", func(t *testing.T) {
		got := Calculate(cfg, model.JobInput{Size: 1000, SelectedPackage: "basic", Frequency: "one-time"})
		require.NotNil(t, got.SelectedPackage)
		assert.Equal(t, "basic", got.SelectedPackage.ID)
		assert.Equal(t, 500.0, got.BasePrice)
		assert.Equal(t, 1.5, got.EstimatedHours)
	})

	t.Run("range package uses midpoint", func(t *testing.T) {
		cfg := cfg
		cfg.MinimumCharge = 0
		got := Calculate(cfg, model.JobInput{Size: 1000, SelectedPackage: "deep", Frequency: "one-time"})
		assert.Equal(t, 250.0, got.BasePrice)
	})

	t.Run("quote package is pending without fallback", func(t *testing.T) {
		got := Calculate(cfg, model.JobInput{
			Size:            1000,
			SelectedPackage: "custom",
			Frequency:       "one-time",
			SelectedAddons:  []string{"addon_windows"},
		})
		assert.True(t, got.Pending)
		assert.Zero(t, got.BasePrice)
		assert.Empty(t, got.UsedFallback)
	})
}

func TestCalculate_AddonsAreNotDiscounted(t *testing.T) {
	cfg := model.PricingConfig{
		Model:            model.PricingSizeTieredFlat,
		FlatRate:         100,
		DiscountBiweekly: 20,
		AddonWindows:     4.5,
		AddonCarpetLarge: 30,
		CustomAddons: []model.CustomAddon{
			{ID: "fridge", Name: "Fridge", Price: 25, PricingMetric: "per service"},
			{Name: "Oven", Price: 10, PricingMetric: "per unit"},
		},
	}
	in := model.JobInput{
		Size:           1000,
		Frequency:      "bi-weekly",
		SelectedAddons: []string{"addon_windows", "addon_carpet_large", "fridge", "custom_Oven", "addon_carpet_small"},
		AddonQuantities: map[string]int{
			"addon_windows": 3,
			"fridge":        4,
			"custom_Oven":   2,
		},
	}

	got := Calculate(cfg, in)

	assert.Equal(t, 80.0, got.DiscountedBase)
	require.Len(t, got.Addons, 4)
	byKey := map[string]model.AddonLine{}
	for _, line := range got.Addons {
		byKey[line.Key] = line
	}
	assert.Equal(t, 13.5, byKey["addon_windows"].TotalPrice)
	assert.Equal(t, 30.0, byKey["addon_carpet_large"].TotalPrice)
	assert.Equal(t, 1, byKey["fridge"].Quantity)
	assert.Equal(t, 25.0, byKey["fridge"].TotalPrice)
	assert.Equal(t, 20.0, byKey["custom_Oven"].TotalPrice)
	assert.Equal(t, 88.5, got.AddonTotal)
	assert.Equal(t, 168.5, got.FinalPrice)
}

func TestCalculate_FirstCleaningDiscount(t *testing.T) {
	base := model.PricingConfig{
		Model:          model.PricingSizeTieredFlat,
		FlatRate:       100,
		DiscountWeekly: 10,
	}

	percent := base
	percent.FirstCleaningDiscountType = model.DiscountPercent
	percent.FirstCleaningDiscountValue = 15
	got := Calculate(percent, model.JobInput{Size: 1000, Frequency: "weekly", IsFirstCleaning: true})
	require.Len(t, got.Discounts, 2)
	assert.Equal(t, 13.5, got.Discounts[1].Amount)
	assert.Equal(t, 76.5, got.FinalPrice)

	fixed := base
	fixed.FirstCleaningDiscountType = model.DiscountFixed
	fixed.FirstCleaningDiscountValue = 500
	got = Calculate(fixed, model.JobInput{Size: 1000, Frequency: "weekly", IsFirstCleaning: true})
	assert.Equal(t, 90.0, got.Discounts[1].Amount)
	assert.Zero(t, got.FinalPrice)
	assert.True(t, got.Pending)

	got = Calculate(percent, model.JobInput{Size: 1000, Frequency: "weekly"})
	assert.Len(t, got.Discounts, 1)
	assert.Equal(t, 90.0, got.FinalPrice)
}

func TestCalculate_TermTotal(t *testing.T) {
	cfg := model.PricingConfig{Model: model.PricingSizeTieredFlat, FlatRate: 100}

	tests := []struct {
		name        string
		in          model.JobInput
		occurrences int
		total       float64
	}{
		{"weekly six months", model.JobInput{Frequency: "weekly", TermDuration: 6, TermUnit: "months"}, 24, 2400},
		{"daily one month", model.JobInput{Frequency: "daily", TermDuration: 1, TermUnit: "months"}, 22, 2200},
		{"monthly one year", model.JobInput{Frequency: "monthly", TermDuration: 1, TermUnit: "years"}, 12, 1200},
		{"one-time ignores term", model.JobInput{Frequency: "one-time", TermDuration: 6, TermUnit: "months"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Size = 1000
			got := Calculate(cfg, tt.in)
			assert.Equal(t, tt.occurrences, got.Occurrences)
			assert.Equal(t, tt.total, got.TotalTermValue)
		})
	}
}

func TestCalculate_RoundsEachStep(t *testing.T) {
	cfg := model.PricingConfig{
		Model:          model.PricingPerArea,
		RatePerArea:    0.0333,
		DiscountWeekly: 7,
	}

	got := Calculate(cfg, model.JobInput{Size: 1001, Frequency: "weekly"})

	assert.Equal(t, 33.33, got.BasePrice)
	assert.Equal(t, 2.33, got.Discounts[0].Amount)
	assert.Equal(t, 31.0, got.FinalPrice)
}

func TestCalculate_FinalNeverNegative(t *testing.T) {
	cfg := model.PricingConfig{
		Model:                      model.PricingPerArea,
		RatePerArea:                0.5,
		DiscountWeekly:             100,
		FirstCleaningDiscountType:  model.DiscountFixed,
		FirstCleaningDiscountValue: 1000,
	}
	for _, size := range []int{0, 1, 500, 5000} {
		got := Calculate(cfg, model.JobInput{Size: size, Frequency: "weekly", IsFirstCleaning: true})
		assert.GreaterOrEqual(t, got.FinalPrice, 0.0)
		assert.GreaterOrEqual(t, got.EstimatedHours, 1.0)
	}
}
