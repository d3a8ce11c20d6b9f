package model

import (
	"time"

	"gorm.io/datatypes"
)

type PricingModel string

const (
	PricingPerArea        PricingModel = "sqft"
	PricingPerHour        PricingModel = "hourly"
	PricingSizeTieredFlat PricingModel = "flat"
	PricingFixedPackage   PricingModel = "packages"
)

type HourlyRateMode string

const (
	HourlyRateGeneral    HourlyRateMode = "general"
	HourlyRatePerCleaner HourlyRateMode = "per_cleaner"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

type PackagePriceType string

const (
	PackagePriceFlat  PackagePriceType = "flat"
	PackagePriceRange PackagePriceType = "range"
	PackagePriceQuote PackagePriceType = "quote"
)

type Package struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Included        []string         `json:"included,omitempty"`
	DurationMinutes float64          `json:"duration,omitempty"`
	PriceType       PackagePriceType `json:"priceType"`
	Price           float64          `json:"price,omitempty"`
	PriceMin        float64          `json:"priceMin,omitempty"`
	PriceMax        float64          `json:"priceMax,omitempty"`
}

type CustomAddon struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PricingMetric string  `json:"pricingMetric,omitempty"`
}

// Key is the identifier used by job forms when selecting the add-on.
func (a CustomAddon) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return "custom_" + a.Name
}

// PricingConfig is owned by a provider. A zero rate means "not configured".
type PricingConfig struct {
	ID         uint64       `gorm:"primaryKey" json:"-"`
	ProviderID uint64       `gorm:"uniqueIndex;not null" json:"provider_id"`
	Model      PricingModel `gorm:"size:20;not null" json:"pricing_model"`

	RatePerArea    float64        `json:"rate_per_sqft"`
	HourlyRate     float64        `json:"hourly_rate"`
	HourlyRateMode HourlyRateMode `gorm:"size:20" json:"hourly_rate_mode"`
	FlatRate       float64        `json:"flat_rate"`
	FlatRateSmall  float64        `json:"flat_rate_small"`
	FlatRateMedium float64        `json:"flat_rate_medium"`
	FlatRateLarge  float64        `json:"flat_rate_large"`
	MinimumCharge  float64        `json:"minimum_charge"`

	MinutesPer1000Area float64 `json:"cleaning_time_per_sqft"`
	TimeSmallJob       float64 `json:"time_small_job"`
	TimeMediumJob      float64 `json:"time_medium_job"`
	TimeLargeJob       float64 `json:"time_large_job"`
	CleanersSmallJob   int     `json:"cleaners_small_job"`
	CleanersLargeJob   int     `json:"cleaners_large_job"`

	DiscountWeekly   float64 `json:"discount_weekly"`
	DiscountBiweekly float64 `json:"discount_biweekly"`
	DiscountMonthly  float64 `json:"discount_monthly"`
	DiscountLongTerm float64 `json:"discount_long_term"`

	FirstCleaningDiscountType  DiscountType `gorm:"size:20" json:"first_cleaning_discount_type"`
	FirstCleaningDiscountValue float64      `json:"first_cleaning_discount_value"`

	AddonWindows      float64 `json:"addon_windows"`
	AddonCarpets      float64 `json:"addon_carpets"`
	AddonCarpetSmall  float64 `json:"addon_carpet_small"`
	AddonCarpetMedium float64 `json:"addon_carpet_medium"`
	AddonCarpetLarge  float64 `json:"addon_carpet_large"`

	CustomAddons datatypes.JSONSlice[CustomAddon] `json:"custom_addons"`
	Packages     datatypes.JSONSlice[Package]     `json:"custom_packages"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (c PricingConfig) HasSizeTieredRates() bool {
	return c.FlatRateSmall > 0 || c.FlatRateMedium > 0 || c.FlatRateLarge > 0
}

func (c PricingConfig) FindPackage(id string) (Package, bool) {
	if id == "" {
		return Package{}, false
	}
	for _, p := range c.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
