// Package quote prices a cleaning job from a provider's pricing
// configuration. It has no I/O and never fails: when no deterministic price
// can be produced the result is flagged pending.
package quote

import (
	"math"
	"strings"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type fallback struct {
	name string
	fn   func(cfg model.PricingConfig, size int) outcome
}

// Tried in order when the configured model prices the job at zero.
var fallbacks = []fallback{
	{name: "size_tiered_flat", fn: func(cfg model.PricingConfig, size int) outcome {
		if !cfg.HasSizeTieredRates() || size <= 0 {
			return outcome{}
		}
		price := tieredFlatRate(cfg, size)
		return outcome{price: price, hours: estimateHours(cfg, size)}
	}},
	{name: "flat", fn: func(cfg model.PricingConfig, size int) outcome {
		if cfg.FlatRate <= 0 {
			return outcome{}
		}
		return outcome{price: cfg.FlatRate, hours: 2}
	}},
	{name: "hourly", fn: func(cfg model.PricingConfig, size int) outcome {
		if cfg.HourlyRate <= 0 {
			return outcome{}
		}
		hours := 2.0
		if size > 0 {
			hours = realisticHours(size)
		}
		return outcome{price: hours * cfg.HourlyRate, hours: hours}
	}},
	{name: "sqft", fn: func(cfg model.PricingConfig, size int) outcome {
		if cfg.RatePerArea <= 0 || size <= 0 {
			return outcome{}
		}
		return outcome{price: float64(size) * cfg.RatePerArea, hours: realisticHours(size)}
	}},
}

// occurrencesPerMonth counts billable services per month when a quote is
// stretched over a contract term. Daily work bills working days only.
var occurrencesPerMonth = map[model.Frequency]int{
	model.FrequencyDaily:       22,
	model.FrequencyTwiceWeekly: 8,
	model.FrequencyThriceWeek:  12,
	model.FrequencyWeekly:      4,
	model.FrequencyBiweekly:    2,
	model.FrequencyMonthly:     1,
}

// Calculate prices in against cfg. Every aggregate is rounded to cents as
// soon as it is produced.
func Calculate(cfg model.PricingConfig, in model.JobInput) model.QuoteResult {
	if in.Size < 0 {
		in.Size = 0
	}
	freq := model.FrequencyWeekly
	if strings.TrimSpace(in.Frequency) != "" {
		freq = model.ParseFrequency(in.Frequency)
	}

	result := model.QuoteResult{
		PricingModel: cfg.Model,
		Frequency:    freq,
		Cleaners:     cleanersFor(cfg, in.Size),
		Discounts:    []model.AppliedDiscount{},
		Addons:       []model.AddonLine{},
	}

	var out outcome
	if s := strategyFor(cfg.Model); s != nil {
		out = s.compute(cfg, in)
	}
	result.SelectedPackage = out.pkg

	if out.price <= 0 && !out.quoteRequired {
		for _, fb := range fallbacks {
			if candidate := fb.fn(cfg, in.Size); candidate.price > 0 {
				out.price = candidate.price
				out.hours = candidate.hours
				result.UsedFallback = fb.name
				break
			}
		}
	}

	base := model.RoundMoney(math.Max(0, out.price))
	if !out.quoteRequired && cfg.MinimumCharge > 0 && base < cfg.MinimumCharge {
		base = model.RoundMoney(cfg.MinimumCharge)
	}
	result.BasePrice = base

	result.Addons, result.AddonTotal = addonLines(cfg, in)

	discounted := base
	if rate := frequencyDiscount(cfg, freq); rate > 0 {
		amount := model.RoundMoney(base * rate / 100)
		discounted = model.RoundMoney(base - amount)
		result.Discounts = append(result.Discounts, model.AppliedDiscount{
			Kind:   "frequency",
			Type:   model.DiscountPercent,
			Rate:   rate,
			Amount: amount,
		})
	}

	if in.IsFirstCleaning && cfg.FirstCleaningDiscountValue > 0 {
		kind := cfg.FirstCleaningDiscountType
		if kind == "" {
			kind = model.DiscountPercent
		}
		var amount float64
		if kind == model.DiscountFixed {
			amount = math.Min(cfg.FirstCleaningDiscountValue, discounted)
		} else {
			amount = discounted * cfg.FirstCleaningDiscountValue / 100
		}
		amount = model.RoundMoney(amount)
		discounted = model.RoundMoney(math.Max(0, discounted-amount))
		result.Discounts = append(result.Discounts, model.AppliedDiscount{
			Kind:   "first_cleaning",
			Type:   kind,
			Rate:   cfg.FirstCleaningDiscountValue,
			Amount: amount,
		})
	}
	result.DiscountedBase = discounted
	result.FinalPrice = model.RoundMoney(discounted + result.AddonTotal)

	if in.TermDuration > 0 && freq.IsRecurring() {
		months := in.TermDuration
		if strings.HasPrefix(strings.ToLower(in.TermUnit), "year") {
			months *= 12
		}
		perMonth, ok := occurrencesPerMonth[freq]
		if !ok {
			perMonth = occurrencesPerMonth[model.FrequencyWeekly]
		}
		result.Occurrences = months * perMonth
		result.TotalTermValue = model.RoundMoney(result.FinalPrice * float64(result.Occurrences))
	}

	hours := out.hours
	if hours < 1 {
		hours = 1
	}
	result.EstimatedHours = math.Round(hours*10) / 10

	result.Pending = result.FinalPrice == 0 || out.quoteRequired
	return result
}

func frequencyDiscount(cfg model.PricingConfig, freq model.Frequency) float64 {
	switch freq {
	case model.FrequencyWeekly:
		return cfg.DiscountWeekly
	case model.FrequencyBiweekly:
		return cfg.DiscountBiweekly
	case model.FrequencyMonthly:
		return cfg.DiscountMonthly
	case model.FrequencyLongTerm:
		return cfg.DiscountLongTerm
	}
	return 0
}
