package model

import (
	"time"

	"github.com/google/uuid"
)

type ClientStatus string

const (
	ClientStatusPendingSignature ClientStatus = "pending_signature"
	ClientStatusNewLead          ClientStatus = "new_lead"
	ClientStatusPendingApproval  ClientStatus = "pending_approval"
	ClientStatusScheduled        ClientStatus = "scheduled"
	ClientStatusActive           ClientStatus = "active"
	ClientStatusCompleted        ClientStatus = "completed"
	ClientStatusCancelled        ClientStatus = "cancelled"
)

var clientStatusRank = map[ClientStatus]int{
	ClientStatusPendingSignature: 0,
	ClientStatusNewLead:          1,
	ClientStatusPendingApproval:  2,
	ClientStatusScheduled:        3,
	ClientStatusActive:           4,
	ClientStatusCompleted:        5,
}

// Rank orders the onboarding progression. A client who booked before the
// contract was fully signed stays at pending_approval rather than falling
// back to new_lead. Cancelled sits outside the order.
func (s ClientStatus) Rank() int {
	if r, ok := clientStatusRank[s]; ok {
		return r
	}
	return -1
}

// Advances reports whether moving to next is a forward step.
// Cancelled clients never advance.
func (s ClientStatus) Advances(next ClientStatus) bool {
	if s == ClientStatusCancelled {
		return false
	}
	if s.Rank() < 0 {
		return true
	}
	return next.Rank() > s.Rank()
}

type QuoteStatus string

const (
	QuoteStatusNone          QuoteStatus = ""
	QuoteStatusPendingReview QuoteStatus = "pending_review"
	QuoteStatusApproved      QuoteStatus = "approved"
	QuoteStatusAdjusted      QuoteStatus = "adjusted"
	QuoteStatusRejected      QuoteStatus = "rejected"
)

type Client struct {
	ID           uint64       `gorm:"primaryKey" json:"-"`
	PublicID     uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	ProviderID   uint64       `gorm:"index;not null" json:"-"`
	BusinessName string       `gorm:"size:255;not null" json:"business_name"`
	ContactName  string       `gorm:"size:255" json:"contact_name,omitempty"`
	Email        string       `gorm:"size:255" json:"email,omitempty"`
	Phone        string       `gorm:"size:50" json:"phone,omitempty"`
	Address      string       `gorm:"size:500" json:"address,omitempty"`
	Status       ClientStatus `gorm:"size:30;index;not null" json:"status"`

	QuoteStatus          QuoteStatus `gorm:"size:30" json:"quote_status,omitempty"`
	QuoteSubmittedAt     *time.Time  `json:"quote_submitted_at,omitempty"`
	QuoteApprovedAt      *time.Time  `json:"quote_approved_at,omitempty"`
	OriginalQuoteAmount  float64     `json:"original_quote_amount,omitempty"`
	AdjustedQuoteAmount  float64     `json:"adjusted_quote_amount,omitempty"`
	QuoteAdjustmentNotes string      `gorm:"size:5000" json:"quote_adjustment_notes,omitempty"`

	PendingContractTitle        string     `gorm:"size:255" json:"pending_contract_title,omitempty"`
	PendingContractStartDate    *time.Time `json:"pending_contract_start_date,omitempty"`
	PendingContractEndDate      *time.Time `json:"pending_contract_end_date,omitempty"`
	PendingContractTotalValue   float64    `json:"pending_contract_total_value,omitempty"`
	PendingContractPaymentTerms string     `gorm:"size:255" json:"pending_contract_payment_terms,omitempty"`
	PendingContractFrequency    Frequency  `gorm:"size:30" json:"pending_contract_frequency,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the contact person over the business.
func (c Client) DisplayName() string {
	if c.ContactName != "" {
		return c.ContactName
	}
	return c.BusinessName
}

// StatusesBefore lists every status a client may hold and still advance to
// next.
func StatusesBefore(next ClientStatus) []ClientStatus {
	out := make([]ClientStatus, 0, len(clientStatusRank))
	for _, s := range []ClientStatus{
		ClientStatusPendingSignature,
		ClientStatusNewLead,
		ClientStatusPendingApproval,
		ClientStatusScheduled,
		ClientStatusActive,
		ClientStatusCompleted,
	} {
		if s.Advances(next) {
			out = append(out, s)
		}
	}
	return out
}
