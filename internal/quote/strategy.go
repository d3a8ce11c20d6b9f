package quote

import "github.com/nurpe/cleaning-contracts/internal/model"

// outcome is what a pricing strategy contributes before floors, add-ons
// and discounts are applied.
type outcome struct {
	price         float64
	hours         float64
	pkg           *model.Package
	quoteRequired bool
}

// strategy is implemented once per pricing model.
type strategy interface {
	compute(cfg model.PricingConfig, in model.JobInput) outcome
}

func strategyFor(m model.PricingModel) strategy {
	switch m {
	case model.PricingPerArea:
		return perArea{}
	case model.PricingPerHour:
		return perHour{}
	case model.PricingSizeTieredFlat:
		return sizeTieredFlat{}
	case model.PricingFixedPackage:
		return fixedPackage{}
	default:
		return nil
	}
}

type perArea struct{}

func (perArea) compute(cfg model.PricingConfig, in model.JobInput) outcome {
	if cfg.RatePerArea <= 0 {
		return outcome{}
	}
	return outcome{
		price: float64(in.Size) * cfg.RatePerArea,
		hours: estimateHours(cfg, in.Size),
	}
}

type perHour struct{}

func (perHour) compute(cfg model.PricingConfig, in model.JobInput) outcome {
	if cfg.HourlyRate <= 0 {
		return outcome{}
	}
	hours := estimateHours(cfg, in.Size)
	price := hours * cfg.HourlyRate
	if cfg.HourlyRateMode == model.HourlyRatePerCleaner {
		price *= float64(cleanersFor(cfg, in.Size))
	}
	return outcome{price: price, hours: hours}
}

type sizeTieredFlat struct{}

func (sizeTieredFlat) compute(cfg model.PricingConfig, in model.JobInput) outcome {
	price := tieredFlatRate(cfg, in.Size)
	if price == 0 {
		price = cfg.FlatRate
	}
	if price == 0 {
		return outcome{}
	}
	return outcome{price: price, hours: estimateHours(cfg, in.Size)}
}

type fixedPackage struct{}

func (fixedPackage) compute(cfg model.PricingConfig, in model.JobInput) outcome {
	pkg, ok := cfg.FindPackage(in.SelectedPackage)
	if !ok {
		return outcome{}
	}
	out := outcome{pkg: &pkg}
	switch pkg.PriceType {
	case model.PackagePriceFlat:
		out.price = pkg.Price
	case model.PackagePriceRange:
		switch {
		case pkg.PriceMin > 0 && pkg.PriceMax > 0:
			out.price = (pkg.PriceMin + pkg.PriceMax) / 2
		case pkg.PriceMin > 0:
			out.price = pkg.PriceMin
		default:
			out.price = pkg.PriceMax
		}
	default:
		out.quoteRequired = true
	}
	if pkg.DurationMinutes > 0 {
		out.hours = pkg.DurationMinutes / 60
	} else {
		out.hours = estimateHours(cfg, in.Size)
	}
	return out
}

// tieredFlatRate picks the small/medium/large flat rate for size. When the
// tier that covers size is not configured the nearest configured tier wins.
func tieredFlatRate(cfg model.PricingConfig, size int) float64 {
	small, medium, large := cfg.FlatRateSmall, cfg.FlatRateMedium, cfg.FlatRateLarge
	var order []float64
	switch {
	case size < 1500:
		order = []float64{small, medium, large}
	case size <= 2500:
		order = []float64{medium, large, small}
	default:
		order = []float64{large, medium, small}
	}
	for _, rate := range order {
		if rate > 0 {
			return rate
		}
	}
	return 0
}

func cleanersFor(cfg model.PricingConfig, size int) int {
	if size > 2000 {
		if cfg.CleanersLargeJob > 0 {
			return cfg.CleanersLargeJob
		}
		return 2
	}
	if cfg.CleanersSmallJob > 0 {
		return cfg.CleanersSmallJob
	}
	return 1
}
