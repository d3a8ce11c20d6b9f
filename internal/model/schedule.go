package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in-progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

type ApprovalStatus string

const (
	ApprovalPending         ApprovalStatus = "pending"
	ApprovalAccepted        ApprovalStatus = "accepted"
	ApprovalChangeRequested ApprovalStatus = "change_requested"
	ApprovalClientCounter   ApprovalStatus = "client_counter"
)

// Schedule is a committed calendar entry. It only counts once the provider
// has accepted it.
type Schedule struct {
	ID             uint64         `gorm:"primaryKey" json:"id"`
	ProviderID     uint64         `gorm:"index;not null" json:"-"`
	ClientID       uint64         `gorm:"index;not null" json:"-"`
	ContractID     uint64         `gorm:"index;not null" json:"-"`
	ProposalID     *uint64        `json:"proposal_id,omitempty"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Date           time.Time      `gorm:"index;not null" json:"scheduled_date"`
	StartTime      string         `gorm:"size:5" json:"start_time"`
	EndTime        string         `gorm:"size:5" json:"end_time"`
	Status         ScheduleStatus `gorm:"size:20;not null" json:"status"`
	ApprovalStatus ApprovalStatus `gorm:"size:20;index;not null" json:"approval_status"`

	ProposedDate      *time.Time `json:"proposed_date,omitempty"`
	ProposedStartTime string     `gorm:"size:5" json:"proposed_start_time,omitempty"`
	ProposedEndTime   string     `gorm:"size:5" json:"proposed_end_time,omitempty"`

	Notes           string    `gorm:"size:2000" json:"notes,omitempty"`
	CalendarEventID string    `gorm:"size:500" json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Party string

const (
	PartyProvider Party = "provider"
	PartyClient   Party = "client"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalCountered ProposalStatus = "countered"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalExpired   ProposalStatus = "expired"
)

// MaxProposalRounds bounds the provider/client negotiation.
const MaxProposalRounds = 3

type TimeSlot struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func (s TimeSlot) Equal(other TimeSlot) bool {
	return s.Date == other.Date && s.StartTime == other.StartTime && s.EndTime == other.EndTime
}

type SchedulingProposal struct {
	ID           uint64                        `gorm:"primaryKey" json:"id"`
	PublicID     uuid.UUID                     `gorm:"type:uuid;uniqueIndex;not null" json:"public_id"`
	ContractID   uint64                        `gorm:"index;not null" json:"-"`
	ClientID     uint64                        `gorm:"index;not null" json:"-"`
	ProviderID   uint64                        `gorm:"index;not null" json:"-"`
	Round        int                           `gorm:"not null;default:1" json:"proposal_round"`
	ProposedBy   Party                         `gorm:"size:20;not null" json:"proposed_by"`
	Slots        datatypes.JSONSlice[TimeSlot] `json:"time_slots"`
	SelectedSlot datatypes.JSONType[*TimeSlot] `json:"selected_slot"`
	Status       ProposalStatus                `gorm:"size:20;index;not null" json:"status"`

	PreferredDays       string `gorm:"size:100" json:"preferred_days,omitempty"`
	PreferredTimeWindow string `gorm:"size:100" json:"preferred_time_window,omitempty"`
	ClientNotes         string `gorm:"size:1000" json:"client_notes,omitempty"`

	ExpiresAt   time.Time  `gorm:"index" json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Open reports whether the provider can still supersede this proposal.
func (p SchedulingProposal) Open() bool {
	return p.Status == ProposalPending || p.Status == ProposalCountered
}

func (p SchedulingProposal) Offers(slot TimeSlot) bool {
	for _, s := range p.Slots {
		if s.Equal(slot) {
			return true
		}
	}
	return false
}
