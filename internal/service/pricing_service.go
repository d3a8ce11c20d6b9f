package service

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/monitoring"
	"github.com/nurpe/cleaning-contracts/internal/quote"
)

type PricingService struct {
	*core
}

func (s *PricingService) GetConfig(ctx context.Context, p model.Principal) (*model.PricingConfig, error) {
	cfg, err := s.Store.Pricing.GetByProvider(ctx, p.ProviderID)
	if err != nil {
		return nil, notFound(err, "pricing configuration")
	}
	return cfg, nil
}

func (s *PricingService) SaveConfig(ctx context.Context, p model.Principal, cfg model.PricingConfig) (*model.PricingConfig, error) {
	if p.Role != model.RoleProvider {
		return nil, ErrPermissionDenied
	}
	if err := checkPricingConfig(cfg); err != nil {
		return nil, err
	}
	cfg.ID = 0
	cfg.ProviderID = p.ProviderID
	if cfg.HourlyRateMode == "" {
		cfg.HourlyRateMode = model.HourlyRateGeneral
	}
	if cfg.FirstCleaningDiscountType == "" {
		cfg.FirstCleaningDiscountType = model.DiscountPercent
	}
	if err := s.Store.Pricing.Upsert(ctx, &cfg); err != nil {
		return nil, err
	}
	return s.Store.Pricing.GetByProvider(ctx, p.ProviderID)
}

// Preview prices a job against the caller's stored configuration.
func (s *PricingService) Preview(ctx context.Context, p model.Principal, job model.JobInput) (model.QuoteResult, error) {
	return s.quoteFor(ctx, p.ProviderID, job)
}

func (c *core) quoteFor(ctx context.Context, providerID uint64, job model.JobInput) (model.QuoteResult, error) {
	if job.Size < 0 {
		return model.QuoteResult{}, invalid("squareFootage must not be negative")
	}
	cfg, err := c.Store.Pricing.GetByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.QuoteResult{}, precondition("the provider has not configured pricing yet")
		}
		return model.QuoteResult{}, err
	}
	result := quote.Calculate(*cfg, job)
	monitoring.QuotesCalculated.WithLabelValues(string(cfg.Model), strconv.FormatBool(result.Pending)).Inc()
	return result, nil
}

func checkPricingConfig(cfg model.PricingConfig) error {
	switch cfg.Model {
	case model.PricingPerArea, model.PricingPerHour, model.PricingSizeTieredFlat, model.PricingFixedPackage:
	default:
		return invalid("pricing_model must be one of sqft, hourly, flat, packages")
	}
	switch cfg.HourlyRateMode {
	case "", model.HourlyRateGeneral, model.HourlyRatePerCleaner:
	default:
		return invalid("hourly_rate_mode must be general or per_cleaner")
	}
	switch cfg.FirstCleaningDiscountType {
	case "", model.DiscountPercent, model.DiscountFixed:
	default:
		return invalid("first_cleaning_discount_type must be percent or fixed")
	}
	amounts := map[string]float64{
		"rate_per_sqft":                 cfg.RatePerArea,
		"hourly_rate":                   cfg.HourlyRate,
		"flat_rate":                     cfg.FlatRate,
		"flat_rate_small":               cfg.FlatRateSmall,
		"flat_rate_medium":              cfg.FlatRateMedium,
		"flat_rate_large":               cfg.FlatRateLarge,
		"minimum_charge":                cfg.MinimumCharge,
		"first_cleaning_discount_value": cfg.FirstCleaningDiscountValue,
		"addon_windows":                 cfg.AddonWindows,
		"addon_carpets":                 cfg.AddonCarpets,
	}
	for name, v := range amounts {
		if v < 0 {
			return invalid("%s must not be negative", name)
		}
	}
	for name, pct := range map[string]float64{
		"discount_weekly":    cfg.DiscountWeekly,
		"discount_biweekly":  cfg.DiscountBiweekly,
		"discount_monthly":   cfg.DiscountMonthly,
		"discount_long_term": cfg.DiscountLongTerm,
	} {
		if pct < 0 || pct > 100 {
			return invalid("%s must be between 0 and 100", name)
		}
	}
	if cfg.FirstCleaningDiscountType != model.DiscountFixed && cfg.FirstCleaningDiscountValue > 100 {
		return invalid("first_cleaning_discount_value must be at most 100 percent")
	}
	seen := map[string]struct{}{}
	for _, pkg := range cfg.Packages {
		if pkg.ID == "" || pkg.Name == "" {
			return invalid("every package needs an id and a name")
		}
		if _, dup := seen[pkg.ID]; dup {
			return invalid("duplicate package id %q", pkg.ID)
		}
		seen[pkg.ID] = struct{}{}
		if pkg.PriceType == model.PackagePriceRange && pkg.PriceMin > 0 && pkg.PriceMax > 0 && pkg.PriceMin > pkg.PriceMax {
			return invalid("package %q has priceMin above priceMax", pkg.ID)
		}
	}
	return nil
}
