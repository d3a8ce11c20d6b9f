package quote

import (
	"strings"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type standardAddon struct {
	key    string
	name   string
	metric string
	price  func(cfg model.PricingConfig) float64
}

var standardAddons = []standardAddon{
	{"addon_windows", "Window Cleaning", "per window", func(c model.PricingConfig) float64 { return c.AddonWindows }},
	{"addon_carpet_small", "Small Carpet Cleaning", "per carpet", func(c model.PricingConfig) float64 { return c.AddonCarpetSmall }},
	{"addon_carpet_medium", "Medium Carpet Cleaning", "per carpet", func(c model.PricingConfig) float64 { return c.AddonCarpetMedium }},
	{"addon_carpet_large", "Large Carpet Cleaning", "per carpet", func(c model.PricingConfig) float64 { return c.AddonCarpetLarge }},
	{"addon_carpets", "Carpet Cleaning", "per sq ft", func(c model.PricingConfig) float64 { return c.AddonCarpets }},
}

// addonLines prices the selected add-ons. Line totals and the sum are
// rounded independently.
func addonLines(cfg model.PricingConfig, in model.JobInput) ([]model.AddonLine, float64) {
	lines := []model.AddonLine{}
	if len(in.SelectedAddons) == 0 {
		return lines, 0
	}
	selected := make(map[string]struct{}, len(in.SelectedAddons))
	for _, key := range in.SelectedAddons {
		selected[key] = struct{}{}
	}

	total := 0.0
	add := func(key, name, metric string, unit float64, qty int) {
		line := model.AddonLine{
			Key:           key,
			Name:          name,
			Quantity:      qty,
			UnitPrice:     model.RoundMoney(unit),
			TotalPrice:    model.RoundMoney(unit * float64(qty)),
			PricingMetric: metric,
		}
		lines = append(lines, line)
		total = model.RoundMoney(total + line.TotalPrice)
	}

	for _, addon := range standardAddons {
		if _, ok := selected[addon.key]; !ok {
			continue
		}
		unit := addon.price(cfg)
		if unit <= 0 {
			continue
		}
		add(addon.key, addon.name, addon.metric, unit, quantityOf(in, addon.key))
	}

	for _, custom := range cfg.CustomAddons {
		key := custom.Key()
		if _, ok := selected[key]; !ok || custom.Price <= 0 {
			continue
		}
		metric := custom.PricingMetric
		if metric == "" {
			metric = "per service"
		}
		qty := 1
		if !isSingleUnitMetric(metric) {
			qty = quantityOf(in, key)
		}
		name := custom.Name
		if name == "" {
			name = "Custom Add-on"
		}
		add(key, name, metric, custom.Price, qty)
	}
	return lines, total
}

func quantityOf(in model.JobInput, key string) int {
	if q, ok := in.AddonQuantities[key]; ok && q > 0 {
		return q
	}
	return 1
}

func isSingleUnitMetric(metric string) bool {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "per service", "flat rate":
		return true
	}
	return false
}
