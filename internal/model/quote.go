package model

// JobInput is the job form data a quote is computed from.
type JobInput struct {
	Size            int            `json:"squareFootage"`
	Rooms           int            `json:"numberOfRooms"`
	Frequency       string         `json:"cleaningFrequency"`
	SelectedAddons  []string       `json:"selectedAddons"`
	AddonQuantities map[string]int `json:"addonQuantities"`
	SelectedPackage string         `json:"selectedPackage"`
	IsFirstCleaning bool           `json:"isFirstCleaning"`
	TermDuration    int            `json:"contractTermDuration"`
	TermUnit        string         `json:"contractTermUnit"`
}

type AddonLine struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalPrice    float64 `json:"total_price"`
	PricingMetric string  `json:"pricing_metric"`
}

type AppliedDiscount struct {
	Kind   string       `json:"kind"`
	Type   DiscountType `json:"type"`
	Rate   float64      `json:"rate"`
	Amount float64      `json:"amount"`
}

// QuoteResult is computed on demand and never treated as the source of truth.
type QuoteResult struct {
	PricingModel    PricingModel      `json:"pricing_model"`
	Frequency       Frequency         `json:"frequency"`
	BasePrice       float64           `json:"base_price"`
	Discounts       []AppliedDiscount `json:"discounts"`
	DiscountedBase  float64           `json:"discounted_base_price"`
	Addons          []AddonLine       `json:"addon_details"`
	AddonTotal      float64           `json:"addon_amount"`
	FinalPrice      float64           `json:"final_price"`
	EstimatedHours  float64           `json:"estimated_hours"`
	Cleaners        int               `json:"cleaners"`
	Occurrences     int               `json:"service_occurrences,omitempty"`
	TotalTermValue  float64           `json:"total_term_rate,omitempty"`
	SelectedPackage *Package          `json:"selected_package,omitempty"`
	Pending         bool              `json:"quote_pending"`
	UsedFallback    string            `json:"used_fallback,omitempty"`
}

// ContractValue is the amount a contract built from this quote is worth.
func (q QuoteResult) ContractValue() float64 {
	if q.TotalTermValue > 0 {
		return q.TotalTermValue
	}
	return q.FinalPrice
}

func (q QuoteResult) DiscountTotal() float64 {
	total := 0.0
	for _, d := range q.Discounts {
		total += d.Amount
	}
	return total
}
