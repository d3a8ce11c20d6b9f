package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContractStatus string

const (
	ContractStatusNew       ContractStatus = "new"
	ContractStatusSigned    ContractStatus = "signed"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled
}

// ParseContractStatus accepts "draft" as an alias of "new".
func ParseContractStatus(raw string) (ContractStatus, bool) {
	switch ContractStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ContractStatusNew, "draft":
		return ContractStatusNew, true
	case ContractStatusSigned:
		return ContractStatusSigned, true
	case ContractStatusActive:
		return ContractStatusActive, true
	case ContractStatusCompleted:
		return ContractStatusCompleted, true
	case ContractStatusCancelled:
		return ContractStatusCancelled, true
	}
	return "", false
}

type OnboardingStatus string

const (
	OnboardingPendingSignature  OnboardingStatus = "pending_signature"
	OnboardingPendingScheduling OnboardingStatus = "pending_scheduling"
	OnboardingCompleted         OnboardingStatus = "completed"
)

type RevisionType string

const (
	RevisionPricing RevisionType = "pricing"
	RevisionScope   RevisionType = "scope"
	RevisionBoth    RevisionType = "both"
)

type Signature struct {
	ImageRef  string     `gorm:"size:1000" json:"image_ref,omitempty"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
	IP        string     `gorm:"size:45" json:"ip,omitempty"`
	UserAgent string     `gorm:"size:500" json:"user_agent,omitempty"`
}

func (s Signature) Present() bool {
	return s.ImageRef != "" && s.SignedAt != nil
}

type Contract struct {
	ID               uint64           `gorm:"primaryKey" json:"-"`
	PublicID         uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	ProviderID       uint64           `gorm:"index;not null" json:"-"`
	ClientID         uint64           `gorm:"index;not null" json:"-"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Description      string           `gorm:"size:2000" json:"description,omitempty"`
	Status           ContractStatus   `gorm:"size:30;index;not null" json:"status"`
	OnboardingStatus OnboardingStatus `gorm:"size:30;not null" json:"client_onboarding_status"`
	Frequency        Frequency        `gorm:"size:30" json:"frequency"`
	StartDate        *time.Time       `json:"start_date,omitempty"`
	EndDate          *time.Time       `json:"end_date,omitempty"`
	TotalValue       float64          `json:"total_value"`
	Currency         string           `gorm:"size:10" json:"currency"`
	PaymentTerms     string           `gorm:"size:255" json:"payment_terms,omitempty"`
	Terms            string           `gorm:"size:5000" json:"terms_conditions,omitempty"`

	Quote datatypes.JSONType[QuoteResult] `json:"quote"`

	ProviderSignature Signature  `gorm:"embedded;embeddedPrefix:provider_signature_" json:"provider_signature"`
	ClientSignature   Signature  `gorm:"embedded;embeddedPrefix:client_signature_" json:"client_signature"`
	FullySignedAt     *time.Time `json:"fully_signed_at,omitempty"`

	RevisionRequested   bool         `json:"revision_requested"`
	RevisionType        RevisionType `gorm:"size:20" json:"revision_type,omitempty"`
	RevisionNotes       string       `gorm:"size:2000" json:"revision_notes,omitempty"`
	RevisionRequestedAt *time.Time   `json:"revision_requested_at,omitempty"`
	RevisionCount       int          `gorm:"not null;default:0" json:"revision_count"`

	InvoiceID        string     `gorm:"size:255" json:"invoice_id,omitempty"`
	InvoiceURL       string     `gorm:"size:1000" json:"invoice_url,omitempty"`
	InvoiceCreatedAt *time.Time `json:"invoice_created_at,omitempty"`
	SubscriptionID   string     `gorm:"size:255" json:"subscription_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Contract) FullySigned() bool {
	return c.ProviderSignature.Present() && c.ClientSignature.Present()
}

// Number is the externally visible contract reference. It is derived from
// the public id so the internal id never leaks.
func (c Contract) Number() string {
	return fmt.Sprintf("CLN-%s", strings.ToUpper(c.PublicID.String()[:8]))
}

// DurationMonths is the service window length in 30-day months.
func (c Contract) DurationMonths() float64 {
	if c.StartDate == nil || c.EndDate == nil {
		return 0
	}
	days := int(c.EndDate.Sub(*c.StartDate).Hours() / 24)
	return float64(days) / 30
}

// EstimatedTotalVisits never returns less than one.
func (c Contract) EstimatedTotalVisits() int {
	if !c.Frequency.IsRecurring() || c.StartDate == nil || c.EndDate == nil {
		return 1
	}
	n := int(c.DurationMonths() * float64(c.Frequency.VisitsPerMonth()))
	if n < 1 {
		return 1
	}
	return n
}

func (c Contract) VisitAmount() float64 {
	if c.TotalValue <= 0 {
		return 0
	}
	return RoundMoney(c.TotalValue / float64(c.EstimatedTotalVisits()))
}

// BillsPerVisit reports whether payment terms ask for an invoice per visit.
func (c Contract) BillsPerVisit() bool {
	terms := strings.ToLower(c.PaymentTerms)
	return strings.Contains(terms, "per visit") || strings.Contains(terms, "manual")
}
