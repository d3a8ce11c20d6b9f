package service

import (
	"context"
	"time"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type EventKind string

const (
	EventSignatureRequested      EventKind = "contract_signature_requested"
	EventClientSigned            EventKind = "contract_client_signed"
	EventContractFullySigned     EventKind = "contract_fully_signed"
	EventContractCancelled       EventKind = "contract_cancelled"
	EventContractCompleted       EventKind = "contract_completed"
	EventRevisionRequested       EventKind = "contract_revision_requested"
	EventProposalSent            EventKind = "scheduling_proposal_sent"
	EventProposalAccepted        EventKind = "scheduling_proposal_accepted"
	EventProposalCountered       EventKind = "scheduling_proposal_countered"
	EventBookingRequested        EventKind = "schedule_booking_requested"
	EventScheduleAccepted        EventKind = "schedule_accepted"
	EventScheduleChangeRequested EventKind = "schedule_change_requested"
	EventScheduleCountered       EventKind = "schedule_client_counter"
	EventScheduleCancelled       EventKind = "schedule_cancelled"
	EventInvoiceIssued           EventKind = "invoice_issued"
	EventVisitCompleted          EventKind = "visit_completed"
	EventQuoteSubmitted          EventKind = "quote_submitted"
	EventQuoteReviewed           EventKind = "quote_reviewed"
)

type Recipient struct {
	Party      model.Party `json:"party"`
	ProviderID uint64      `json:"provider_id"`
	Name       string      `json:"name,omitempty"`
	Email      string      `json:"email,omitempty"`
	Phone      string      `json:"phone,omitempty"`
}

// Notifier fans events out to email/SMS.
type Notifier interface {
	Notify(ctx context.Context, kind EventKind, to Recipient, payload map[string]any) error
}

type InvoiceRef struct {
	ID  string
	URL string
}

// PaymentGateway creates deposit invoices and recurring subscriptions.
// Callers check the contract's stored ids before calling.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, contract model.Contract, client model.Client) (InvoiceRef, error)
	CreateSubscription(ctx context.Context, contract model.Contract, client model.Client) (string, error)
}

type Calendar interface {
	CreateEvent(ctx context.Context, schedule model.Schedule) (string, error)
	UpdateEvent(ctx context.Context, schedule model.Schedule) error
	DeleteEvent(ctx context.Context, schedule model.Schedule) error
}

type ContractRenderer interface {
	RenderContract(contract model.Contract, client model.Client) ([]byte, error)
}

type LedgerExporter interface {
	ExportVisits(rows []LedgerRow) ([]byte, error)
}

// LedgerRow is one visit in an exported ledger.
type LedgerRow struct {
	ContractNumber string
	ContractTitle  string
	ClientName     string
	VisitNumber    int
	ScheduledDate  time.Time
	Status         model.VisitStatus
	Amount         float64
	PaymentStatus  string
	InvoiceNumber  string
	CompletedAt    *time.Time
	PhotoCount     int
}

const (
	collaboratorPayment  = "payment"
	collaboratorCalendar = "calendar"
	collaboratorNotifier = "notification"
	collaboratorRenderer = "document"
)
