package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VisitStatus string

const (
	VisitScheduled         VisitStatus = "scheduled"
	VisitInProgress        VisitStatus = "in_progress"
	VisitCompleted         VisitStatus = "completed"
	VisitPaymentProcessing VisitStatus = "payment_processing"
	VisitClosed            VisitStatus = "closed"
)

// Done reports whether the service itself has been delivered.
func (s VisitStatus) Done() bool {
	return s == VisitCompleted || s == VisitPaymentProcessing || s == VisitClosed
}

const (
	MinVisitPhotos = 2
	MaxVisitPhotos = 10
)

type Visit struct {
	ID            uint64                      `gorm:"primaryKey" json:"-"`
	PublicID      uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	ProviderID    uint64                      `gorm:"index;not null" json:"-"`
	ClientID      uint64                      `gorm:"index;not null" json:"-"`
	ContractID    uint64                      `gorm:"uniqueIndex:uq_visit_contract_number;not null" json:"-"`
	VisitNumber   int                         `gorm:"uniqueIndex:uq_visit_contract_number;not null" json:"visit_number"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	ScheduledDate time.Time                   `gorm:"index;not null" json:"scheduled_date"`
	Status        VisitStatus                 `gorm:"size:30;index;not null" json:"status"`
	Amount        float64                     `json:"visit_amount"`
	Photos        datatypes.JSONSlice[string] `json:"photo_proof_urls"`

	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `gorm:"size:2000" json:"completion_notes,omitempty"`

	PaymentMethod string     `gorm:"size:50" json:"payment_method,omitempty"`
	PaymentStatus string     `gorm:"size:30" json:"payment_status,omitempty"`
	InvoiceID     *uint64    `json:"invoice_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// Invoice is synthesized locally for per-visit billing. Deposit invoices
// live at the payment collaborator and are referenced from the contract.
type Invoice struct {
	ID         uint64        `gorm:"primaryKey" json:"-"`
	ProviderID uint64        `gorm:"uniqueIndex:uq_invoice_provider_number;not null" json:"-"`
	Number     string        `gorm:"size:32;uniqueIndex:uq_invoice_provider_number;not null" json:"invoice_number"`
	ClientID   uint64        `gorm:"index;not null" json:"-"`
	ContractID uint64        `gorm:"index;not null" json:"-"`
	VisitID    *uint64       `gorm:"index" json:"-"`
	Title      string        `gorm:"size:255" json:"title"`
	Amount     float64       `json:"total_amount"`
	Status     InvoiceStatus `gorm:"size:20;not null" json:"status"`
	DueDate    time.Time     `json:"due_date"`
	CreatedAt  time.Time     `json:"created_at"`
}

// CollaboratorFailure records an external call that failed after its
// triggering transition had committed, for manual follow-up.
type CollaboratorFailure struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	Collaborator string     `gorm:"size:30;index;not null" json:"collaborator"`
	Operation    string     `gorm:"size:60;not null" json:"operation"`
	ContractID   uint64     `gorm:"index" json:"-"`
	EntityRef    string     `gorm:"size:64" json:"entity_ref,omitempty"`
	Message      string     `gorm:"size:2000" json:"message"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
