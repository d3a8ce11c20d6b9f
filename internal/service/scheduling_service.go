package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/repository"
)

type SchedulingService struct {
	*core
	billing *billingTrigger
}

type ProposeInput struct {
	Slots []model.TimeSlot `json:"time_slots" validate:"required,min=1,max=5,dive"`
	Notes string           `json:"notes" validate:"max=1000"`
}

// Propose offers the client time slots. An open proposal for the contract
// is superseded in place; a countered one becomes pending again in its
// already-advanced round.
func (s *SchedulingService) Propose(ctx context.Context, p model.Principal, contractID uuid.UUID, input ProposeInput) (*model.SchedulingProposal, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	today := dateOnly(s.now())
	for _, slot := range input.Slots {
		date, err := checkSlot(slot)
		if err != nil {
			return nil, err
		}
		if date.Before(today) {
			return nil, invalid("slot %s is in the past", slot.Date)
		}
	}
	contract, err := loadOwnedContract(ctx, s.Store, p, contractID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	var proposalID uint64
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if err := requireSigned(current); err != nil {
			return err
		}

		open, err := tx.Proposals.FindOpen(ctx, current.ID)
		switch {
		case err == nil:
			open.Slots = datatypes.NewJSONSlice(input.Slots)
			open.Status = model.ProposalPending
			open.ProposedBy = model.PartyProvider
			open.ExpiresAt = now.Add(s.Workflow.ProposalTTL)
			open.RespondedAt = nil
			open.ClientNotes = input.Notes
			proposalID = open.ID
			return tx.Proposals.Save(ctx, open)
		case errors.Is(err, gorm.ErrRecordNotFound):
			proposal := &model.SchedulingProposal{
				ContractID:   current.ID,
				ClientID:     current.ClientID,
				ProviderID:   current.ProviderID,
				Round:        1,
				ProposedBy:   model.PartyProvider,
				Slots:        datatypes.NewJSONSlice(input.Slots),
				SelectedSlot: datatypes.NewJSONType[*model.TimeSlot](nil),
				Status:       model.ProposalPending,
				ClientNotes:  input.Notes,
				ExpiresAt:    now.Add(s.Workflow.ProposalTTL),
			}
			if err := tx.Proposals.Create(ctx, proposal); err != nil {
				return err
			}
			proposalID = proposal.ID
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	proposal, err := s.Store.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if client, err := s.Store.Clients.GetByID(ctx, contract.ClientID); err == nil {
		payload := contractPayload(*contract)
		payload["proposal_id"] = proposal.PublicID.String()
		payload["time_slots"] = input.Slots
		payload["round"] = proposal.Round
		payload["expires_at"] = proposal.ExpiresAt
		s.notify(ctx, contract.ID, EventProposalSent, clientRecipient(*client), payload)
	}
	return proposal, nil
}

func (s *SchedulingService) GetProposal(ctx context.Context, id uuid.UUID) (*model.SchedulingProposal, error) {
	proposal, err := s.Store.Proposals.GetByPublicID(ctx, id)
	if err != nil {
		return nil, notFound(err, "proposal")
	}
	return proposal, nil
}

func (s *SchedulingService) ListProposals(ctx context.Context, p model.Principal, contractID uuid.UUID) ([]model.SchedulingProposal, error) {
	contract, err := loadOwnedContract(ctx, s.Store, p, contractID)
	if err != nil {
		return nil, err
	}
	return s.Store.Proposals.ListByContract(ctx, contract.ID)
}

type AcceptSlotInput struct {
	Slot model.TimeSlot `json:"selected_slot" validate:"required"`
}

// AcceptProposal is the client picking one of the offered slots. The
// resulting schedule still needs the provider's acceptance.
func (s *SchedulingService) AcceptProposal(ctx context.Context, proposalID uuid.UUID, input AcceptSlotInput) (*model.Schedule, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	date, err := checkSlot(input.Slot)
	if err != nil {
		return nil, err
	}
	proposal, err := s.Store.Proposals.GetByPublicID(ctx, proposalID)
	if err != nil {
		return nil, notFound(err, "proposal")
	}
	unlock, err := s.lockContract(ctx, proposal.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	var scheduleID uint64
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Proposals.GetByID(ctx, proposal.ID)
		if err != nil {
			return notFound(err, "proposal")
		}
		if current.Status != model.ProposalPending {
			return precondition("proposal is %s and can no longer be accepted", current.Status)
		}
		if !current.Offers(input.Slot) {
			return invalid("selected slot was not offered")
		}
		contract, err := tx.Contracts.GetByID(ctx, current.ContractID)
		if err != nil {
			return notFound(err, "contract")
		}
		if contract.Status.IsTerminal() {
			return precondition("contract is %s", contract.Status)
		}

		slot := input.Slot
		won, err := tx.Proposals.Transition(ctx, current.ID, model.ProposalPending, map[string]any{
			"status":        model.ProposalAccepted,
			"selected_slot": datatypes.NewJSONType(&slot),
			"responded_at":  now,
		})
		if err != nil {
			return err
		}
		if !won {
			return precondition("proposal was answered concurrently")
		}

		existing, err := tx.Schedules.FindBySlot(ctx, contract.ID, date, slot.StartTime)
		switch {
		case err == nil:
			scheduleID = existing.ID
			if err := tx.Schedules.Update(ctx, existing.ID, map[string]any{"proposal_id": current.ID}); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			proposalRef := current.ID
			sched := &model.Schedule{
				ProviderID:     contract.ProviderID,
				ClientID:       contract.ClientID,
				ContractID:     contract.ID,
				ProposalID:     &proposalRef,
				Title:          contract.Title,
				Date:           date,
				StartTime:      slot.StartTime,
				EndTime:        slot.EndTime,
				Status:         model.ScheduleStatusScheduled,
				ApprovalStatus: model.ApprovalPending,
			}
			if err := tx.Schedules.Create(ctx, sched); err != nil {
				return err
			}
			scheduleID = sched.ID
		default:
			return err
		}

		_, err = tx.Clients.Advance(ctx, contract.ClientID, model.ClientStatusPendingApproval)
		return err
	})
	if err != nil {
		return nil, err
	}

	schedule, err := s.Store.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, proposal.ContractID, EventProposalAccepted, providerRecipient(proposal.ProviderID), map[string]any{
		"proposal_id":   proposal.PublicID.String(),
		"schedule_id":   schedule.ID,
		"selected_slot": input.Slot,
	})
	return schedule, nil
}

type CounterInput struct {
	PreferredDays       string `json:"preferred_days" validate:"max=100,required_without=PreferredTimeWindow"`
	PreferredTimeWindow string `json:"preferred_time_window" validate:"max=100"`
	Notes               string `json:"client_notes" validate:"max=1000"`
}

// CounterProposal is the client asking for different times. It consumes a
// negotiation round.
func (s *SchedulingService) CounterProposal(ctx context.Context, proposalID uuid.UUID, input CounterInput) (*model.SchedulingProposal, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	proposal, err := s.Store.Proposals.GetByPublicID(ctx, proposalID)
	if err != nil {
		return nil, notFound(err, "proposal")
	}
	unlock, err := s.lockContract(ctx, proposal.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Proposals.GetByID(ctx, proposal.ID)
		if err != nil {
			return notFound(err, "proposal")
		}
		if current.Status != model.ProposalPending {
			return precondition("proposal is %s and can no longer be countered", current.Status)
		}
		if current.Round >= model.MaxProposalRounds {
			return precondition("negotiation limit of %d rounds reached; please pick one of the offered slots or contact the provider", model.MaxProposalRounds)
		}
		won, err := tx.Proposals.Transition(ctx, current.ID, model.ProposalPending, map[string]any{
			"status":                model.ProposalCountered,
			"round":                 current.Round + 1,
			"proposed_by":           model.PartyClient,
			"preferred_days":        input.PreferredDays,
			"preferred_time_window": input.PreferredTimeWindow,
			"client_notes":          input.Notes,
			"responded_at":          s.now(),
		})
		if err != nil {
			return err
		}
		if !won {
			return precondition("proposal was answered concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	proposal, err = s.Store.Proposals.GetByID(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, proposal.ContractID, EventProposalCountered, providerRecipient(proposal.ProviderID), map[string]any{
		"proposal_id":           proposal.PublicID.String(),
		"round":                 proposal.Round,
		"preferred_days":        proposal.PreferredDays,
		"preferred_time_window": proposal.PreferredTimeWindow,
		"client_notes":          proposal.ClientNotes,
	})
	return proposal, nil
}

type BookInput struct {
	Slot  model.TimeSlot `json:"slot" validate:"required"`
	Notes string         `json:"notes" validate:"max=2000"`
}

// Book lets a client who has signed request a slot directly, outside a
// proposal.
func (s *SchedulingService) Book(ctx context.Context, contractID uuid.UUID, input BookInput) (*model.Schedule, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	date, err := checkSlot(input.Slot)
	if err != nil {
		return nil, err
	}
	if date.Before(dateOnly(s.now())) {
		return nil, invalid("slot %s is in the past", input.Slot.Date)
	}
	contract, err := s.Store.Contracts.GetByPublicID(ctx, contractID)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sched := &model.Schedule{
		ProviderID:     contract.ProviderID,
		ClientID:       contract.ClientID,
		ContractID:     contract.ID,
		Title:          contract.Title,
		Date:           date,
		StartTime:      input.Slot.StartTime,
		EndTime:        input.Slot.EndTime,
		Status:         model.ScheduleStatusScheduled,
		ApprovalStatus: model.ApprovalPending,
		Notes:          input.Notes,
	}
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Contracts.GetByID(ctx, contract.ID)
		if err != nil {
			return notFound(err, "contract")
		}
		if current.Status.IsTerminal() {
			return precondition("contract is %s", current.Status)
		}
		if !current.ClientSignature.Present() {
			return precondition("sign the contract before booking a time")
		}
		if _, err := tx.Schedules.FindBySlot(ctx, current.ID, date, input.Slot.StartTime); err == nil {
			return precondition("this time is already booked")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Schedules.Create(ctx, sched); err != nil {
			return err
		}
		_, err = tx.Clients.Advance(ctx, current.ClientID, model.ClientStatusPendingApproval)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, contract.ID, EventBookingRequested, providerRecipient(contract.ProviderID), map[string]any{
		"contract_id": contract.PublicID.String(),
		"schedule_id": sched.ID,
		"slot":        input.Slot,
	})
	return sched, nil
}

// AcceptSchedule is the provider confirming a schedule. It is the only
// path to client.status=scheduled and the only trigger for billing.
func (s *SchedulingService) AcceptSchedule(ctx context.Context, p model.Principal, scheduleID uint64) (*model.Schedule, error) {
	if p.Role != model.RoleProvider {
		return nil, ErrPermissionDenied
	}
	schedule, err := s.ownedSchedule(ctx, p, scheduleID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, schedule.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		contract, err := tx.Contracts.GetByID(ctx, schedule.ContractID)
		if err != nil {
			return notFound(err, "contract")
		}
		switch contract.Status {
		case model.ContractStatusSigned:
		case model.ContractStatusNew:
			return precondition("the contract is not fully signed yet; sign the contract first")
		default:
			return precondition("contract is %s; only signed contracts accept schedules", contract.Status)
		}

		current, err := tx.Schedules.GetByID(ctx, schedule.ID)
		if err != nil {
			return notFound(err, "schedule")
		}
		if current.Status == model.ScheduleStatusCancelled {
			return precondition("schedule is cancelled")
		}
		fields := map[string]any{"approval_status": model.ApprovalAccepted}
		switch current.ApprovalStatus {
		case model.ApprovalAccepted:
			return precondition("schedule is already accepted")
		case model.ApprovalChangeRequested:
			return precondition("waiting for the client to respond to the requested change")
		case model.ApprovalClientCounter:
			if current.ProposedDate == nil {
				return precondition("client counter carries no proposed time")
			}
			fields["date"] = *current.ProposedDate
			fields["start_time"] = current.ProposedStartTime
			fields["end_time"] = current.ProposedEndTime
		}
		fields["proposed_date"] = nil
		fields["proposed_start_time"] = ""
		fields["proposed_end_time"] = ""

		won, err := tx.Schedules.TransitionApproval(ctx, current.ID,
			[]model.ApprovalStatus{model.ApprovalPending, model.ApprovalClientCounter}, fields)
		if err != nil {
			return err
		}
		if !won {
			return precondition("schedule changed concurrently; retry")
		}

		contractFields := map[string]any{"onboarding_status": model.OnboardingCompleted}
		if contract.StartDate == nil {
			date := current.Date
			if d, ok := fields["date"].(time.Time); ok {
				date = d
			}
			contractFields["start_date"] = date
		}
		if err := tx.Contracts.Update(ctx, contract.ID, contractFields); err != nil {
			return err
		}
		_, err = tx.Clients.Advance(ctx, contract.ClientID, model.ClientStatusScheduled)
		return err
	})
	if err != nil {
		return nil, err
	}

	schedule, err = s.Store.Schedules.GetByID(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}
	s.syncCalendar(ctx, schedule)
	s.billing.run(ctx, schedule.ContractID)

	if contract, err := s.Store.Contracts.GetByID(ctx, schedule.ContractID); err == nil {
		if client, err := s.Store.Clients.GetByID(ctx, contract.ClientID); err == nil {
			payload := contractPayload(*contract)
			payload["schedule_id"] = schedule.ID
			payload["date"] = schedule.Date.Format(time.DateOnly)
			payload["start_time"] = schedule.StartTime
			payload["end_time"] = schedule.EndTime
			s.notify(ctx, contract.ID, EventScheduleAccepted, clientRecipient(*client), payload)
		}
	}
	return schedule, nil
}

type ChangeInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Notes     string `json:"notes" validate:"max=2000"`
}

func (in ChangeInput) slot() model.TimeSlot {
	return model.TimeSlot{Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime}
}

// RequestChange is the provider proposing a different time for a schedule.
func (s *SchedulingService) RequestChange(ctx context.Context, p model.Principal, scheduleID uint64, input ChangeInput) (*model.Schedule, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	date, err := checkSlot(input.slot())
	if err != nil {
		return nil, err
	}
	schedule, err := s.ownedSchedule(ctx, p, scheduleID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockContract(ctx, schedule.ContractID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Schedules.GetByID(ctx, schedule.ID)
		if err != nil {
			return notFound(err, "schedule")
		}
		if current.Status == model.ScheduleStatusCancelled || current.Status == model.ScheduleStatusCompleted {
			return precondition("schedule is %s", current.Status)
		}
		return tx.Schedules.Update(ctx, current.ID, map[string]any{
			"approval_status":     model.ApprovalChangeRequested,
			"proposed_date":       date,
			"proposed_start_time": input.StartTime,
			"proposed_end_time":   input.EndTime,
			"notes":               input.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	schedule, err = s.Store.Schedules.GetByID(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}
	if client, err := s.Store.Clients.GetByID(ctx, schedule.ClientID); err == nil {
		s.notify(ctx, schedule.ContractID, EventScheduleChangeRequested, clientRecipient(*client), map[string]any{
			"schedule_id": schedule.ID,
			"proposed":    input.slot(),
			"notes":       input.Notes,
		})
	}
	return schedule, nil
}

type ClientResponse string

const (
	ClientAcceptsChange ClientResponse = "accept"
	ClientCounters      ClientResponse = "counter"
)

type RespondInput struct {
	Action    ClientResponse `json:"action" validate:"required,oneof=accept counter"`
	Date      string         `json:"date" validate:"required_if=Action counter,omitempty,datetime=2006-01-02"`
	StartTime string         `json:"start_time" validate:"required_if=Action counter,omitempty,datetime=15:04"`
	EndTime   string         `json:"end_time" validate:"required_if=Action counter,omitempty,datetime=15:04"`
	Notes     string         `json:"notes" validate:"max=2000"`
}

// RespondToSchedule is the client's answer on a schedule: accepting the
// provider's requested change, or countering with another time. Either
// way the schedule goes back to the provider for acceptance.
func (s *SchedulingService) RespondToSchedule(ctx context.Context, contractID uuid.UUID, scheduleID uint64, input RespondInput) (*model.Schedule, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var counterDate time.Time
	if input.Action == ClientCounters {
		date, err := checkSlot(model.TimeSlot{Date: input.Date, StartTime: input.StartTime, EndTime: input.EndTime})
		if err != nil {
			return nil, err
		}
		counterDate = date
	}
	contract, err := s.Store.Contracts.GetByPublicID(ctx, contractID)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	schedule, err := s.Store.Schedules.GetByID(ctx, scheduleID)
	if err != nil || schedule.ContractID != contract.ID {
		return nil, notFound(gorm.ErrRecordNotFound, "schedule")
	}
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Schedules.GetByID(ctx, schedule.ID)
		if err != nil {
			return notFound(err, "schedule")
		}
		if current.Status == model.ScheduleStatusCancelled || current.Status == model.ScheduleStatusCompleted {
			return precondition("schedule is %s", current.Status)
		}

		var fields map[string]any
		switch input.Action {
		case ClientAcceptsChange:
			if current.ApprovalStatus != model.ApprovalChangeRequested || current.ProposedDate == nil {
				return precondition("there is no requested change to accept")
			}
			fields = map[string]any{
				"approval_status":     model.ApprovalPending,
				"date":                *current.ProposedDate,
				"start_time":          current.ProposedStartTime,
				"end_time":            current.ProposedEndTime,
				"proposed_date":       nil,
				"proposed_start_time": "",
				"proposed_end_time":   "",
			}
		case ClientCounters:
			fields = map[string]any{
				"approval_status":     model.ApprovalClientCounter,
				"proposed_date":       counterDate,
				"proposed_start_time": input.StartTime,
				"proposed_end_time":   input.EndTime,
			}
		}
		if input.Notes != "" {
			fields["notes"] = input.Notes
		}
		return tx.Schedules.Update(ctx, current.ID, fields)
	})
	if err != nil {
		return nil, err
	}

	schedule, err = s.Store.Schedules.GetByID(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}
	kind := EventScheduleCountered
	if input.Action == ClientAcceptsChange {
		kind = EventScheduleAccepted
	}
	s.notify(ctx, contract.ID, kind, providerRecipient(contract.ProviderID), map[string]any{
		"schedule_id": schedule.ID,
		"action":      input.Action,
	})
	return schedule, nil
}

// CancelSchedule withdraws a schedule and its calendar event.
func (s *SchedulingService) CancelSchedule(ctx context.Context, p model.Principal, scheduleID uint64) (*model.Schedule, error) {
	schedule, err := s.ownedSchedule(ctx, p, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == model.ScheduleStatusCompleted {
		return nil, &TransitionError{Entity: "schedule", From: string(schedule.Status), To: string(model.ScheduleStatusCancelled)}
	}
	if schedule.Status == model.ScheduleStatusCancelled {
		return schedule, nil
	}
	if err := s.Store.Schedules.Update(ctx, schedule.ID, map[string]any{"status": model.ScheduleStatusCancelled}); err != nil {
		return nil, err
	}
	schedule.Status = model.ScheduleStatusCancelled
	if schedule.CalendarEventID != "" {
		s.deleteCalendarEvent(ctx, *schedule)
	}
	if client, err := s.Store.Clients.GetByID(ctx, schedule.ClientID); err == nil {
		s.notify(ctx, schedule.ContractID, EventScheduleCancelled, clientRecipient(*client), map[string]any{
			"schedule_id": schedule.ID,
			"date":        schedule.Date.Format(time.DateOnly),
		})
	}
	return schedule, nil
}

func (s *SchedulingService) ListSchedules(ctx context.Context, p model.Principal, filter repository.ScheduleFilter) ([]model.Schedule, error) {
	return s.Store.Schedules.ListByProvider(ctx, p.ProviderID, filter)
}

func (s *SchedulingService) ownedSchedule(ctx context.Context, p model.Principal, id uint64) (*model.Schedule, error) {
	schedule, err := s.Store.Schedules.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "schedule")
	}
	if !p.CanManage(schedule.ProviderID) {
		return nil, notFound(gorm.ErrRecordNotFound, "schedule")
	}
	return schedule, nil
}

// syncCalendar creates or updates the schedule's calendar event.
func (c *core) syncCalendar(ctx context.Context, schedule *model.Schedule) {
	if c.Calendar == nil {
		return
	}
	if schedule.CalendarEventID != "" {
		if err := c.Calendar.UpdateEvent(ctx, *schedule); err != nil {
			c.collaboratorFailed(ctx, collaboratorCalendar, "update_event", schedule.ContractID, schedule.CalendarEventID, err)
			return
		}
		c.collaboratorSucceeded(collaboratorCalendar, "update_event")
		return
	}
	eventID, err := c.Calendar.CreateEvent(ctx, *schedule)
	if err != nil {
		c.collaboratorFailed(ctx, collaboratorCalendar, "create_event", schedule.ContractID, "", err)
		return
	}
	c.collaboratorSucceeded(collaboratorCalendar, "create_event")
	if err := c.Store.Schedules.Update(ctx, schedule.ID, map[string]any{"calendar_event_id": eventID}); err != nil {
		c.Log.Error().Err(err).Uint64("schedule_id", schedule.ID).Str("event_id", eventID).Msg("failed to store calendar event id")
		return
	}
	schedule.CalendarEventID = eventID
}

func (c *core) deleteCalendarEvent(ctx context.Context, schedule model.Schedule) {
	if c.Calendar == nil {
		return
	}
	if err := c.Calendar.DeleteEvent(ctx, schedule); err != nil {
		c.collaboratorFailed(ctx, collaboratorCalendar, "delete_event", schedule.ContractID, schedule.CalendarEventID, err)
		return
	}
	c.collaboratorSucceeded(collaboratorCalendar, "delete_event")
}

// requireSigned limits proposals to signed contracts, the only state in
// which the resulting schedule can still be accepted.
func requireSigned(contract *model.Contract) error {
	switch contract.Status {
	case model.ContractStatusSigned:
		return nil
	case model.ContractStatusNew:
		return precondition("both parties must sign the contract before scheduling")
	case model.ContractStatusActive:
		return precondition("contract is already active; its schedule was accepted and visits are generated from it")
	default:
		return precondition("contract is %s", contract.Status)
	}
}

// checkSlot parses the slot's date and checks the time range.
func checkSlot(slot model.TimeSlot) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, slot.Date)
	if err != nil {
		return time.Time{}, invalid("date %q must be YYYY-MM-DD", slot.Date)
	}
	start, err := time.Parse("15:04", slot.StartTime)
	if err != nil {
		return time.Time{}, invalid("start_time %q must be HH:MM", slot.StartTime)
	}
	end, err := time.Parse("15:04", slot.EndTime)
	if err != nil {
		return time.Time{}, invalid("end_time %q must be HH:MM", slot.EndTime)
	}
	if !end.After(start) {
		return time.Time{}, invalid("end_time must be after start_time")
	}
	return date.UTC(), nil
}
