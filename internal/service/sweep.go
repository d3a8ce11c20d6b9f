package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/monitoring"
	"github.com/nurpe/cleaning-contracts/internal/repository"
)

// SweepSummary counts what one sweep run applied.
type SweepSummary struct {
	ContractsActivated int   `json:"contracts_activated"`
	ContractsCompleted int   `json:"contracts_completed"`
	ClientsActivated   int   `json:"clients_activated"`
	ProposalsExpired   int64 `json:"proposals_expired"`
	VisitsGenerated    int   `json:"visits_generated"`
	Failures           int   `json:"failures"`
}

func (s SweepSummary) Applied() int {
	return s.ContractsActivated + s.ContractsCompleted + s.ClientsActivated + int(s.ProposalsExpired) + s.VisitsGenerated
}

// SweepService applies the date-driven transitions. Every step is guarded
// by the current status, so concurrent or repeated runs apply each
// transition once.
type SweepService struct {
	*core
}

// Run sweeps everything due at now. A failure on one contract is logged
// and counted; the run carries on with the rest. The returned error joins
// the failures of whole steps.
func (s *SweepService) Run(ctx context.Context, now time.Time) (SweepSummary, error) {
	started := time.Now()
	defer func() {
		monitoring.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	now = now.UTC()
	var summary SweepSummary
	var errs []error

	if err := s.activateContracts(ctx, now, &summary); err != nil {
		errs = append(errs, fmt.Errorf("activate contracts: %w", err))
	}
	if err := s.completeContracts(ctx, now, &summary); err != nil {
		errs = append(errs, fmt.Errorf("complete contracts: %w", err))
	}
	if err := s.activateClients(ctx, now, &summary); err != nil {
		errs = append(errs, fmt.Errorf("activate clients: %w", err))
	}

	expired, err := s.Store.Proposals.ExpirePending(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire proposals: %w", err))
	} else {
		summary.ProposalsExpired = expired
		monitoring.SweepTransitions.WithLabelValues("proposal_expired").Add(float64(expired))
	}

	if err := s.refillVisits(ctx, now, &summary); err != nil {
		errs = append(errs, fmt.Errorf("refill visits: %w", err))
	}

	s.Log.Info().
		Time("now", now).
		Int("contracts_activated", summary.ContractsActivated).
		Int("contracts_completed", summary.ContractsCompleted).
		Int("clients_activated", summary.ClientsActivated).
		Int64("proposals_expired", summary.ProposalsExpired).
		Int("visits_generated", summary.VisitsGenerated).
		Int("failures", summary.Failures).
		Msg("sweep finished")
	return summary, errors.Join(errs...)
}

func (s *SweepService) activateContracts(ctx context.Context, now time.Time, summary *SweepSummary) error {
	due, err := s.Store.Contracts.ListStartingBy(ctx, now)
	if err != nil {
		return err
	}
	for _, contract := range due {
		activated, generated, err := s.activate(ctx, contract.ID, now)
		if err != nil {
			summary.Failures++
			s.Log.Error().Err(err).Uint64("contract_id", contract.ID).Msg("sweep could not activate contract")
			continue
		}
		if activated {
			summary.ContractsActivated++
			contractTransitioned(model.ContractStatusActive)
			monitoring.SweepTransitions.WithLabelValues("contract_activated").Inc()
		}
		summary.VisitsGenerated += generated
	}
	return nil
}

func (s *SweepService) activate(ctx context.Context, contractID uint64, now time.Time) (bool, int, error) {
	unlock, err := s.lockContract(ctx, contractID)
	if err != nil {
		return false, 0, err
	}
	defer unlock()

	var activated bool
	var generated int
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		won, err := tx.Contracts.Transition(ctx, contractID, model.ContractStatusSigned, model.ContractStatusActive, nil)
		if err != nil || !won {
			return err
		}
		activated = true
		contract, err := tx.Contracts.GetByID(ctx, contractID)
		if err != nil {
			return err
		}
		visits, err := s.generateVisits(ctx, tx, contract, s.Workflow.VisitBatchLimit)
		generated = len(visits)
		return err
	})
	return activated, generated, err
}

func (s *SweepService) completeContracts(ctx context.Context, now time.Time, summary *SweepSummary) error {
	due, err := s.Store.Contracts.ListEndingBy(ctx, now)
	if err != nil {
		return err
	}
	for _, contract := range due {
		completed, err := s.complete(ctx, contract)
		if err != nil {
			summary.Failures++
			s.Log.Error().Err(err).Uint64("contract_id", contract.ID).Msg("sweep could not complete contract")
			continue
		}
		if completed {
			summary.ContractsCompleted++
			monitoring.SweepTransitions.WithLabelValues("contract_completed").Inc()
			s.announceCompletion(ctx, contract.ID)
		}
	}
	return nil
}

func (s *SweepService) complete(ctx context.Context, contract model.Contract) (bool, error) {
	unlock, err := s.lockContract(ctx, contract.ID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var completed bool
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		completed, err = s.completeContract(ctx, tx, &contract)
		return err
	})
	return completed, err
}

func (s *SweepService) activateClients(ctx context.Context, now time.Time, summary *SweepSummary) error {
	ready, err := s.Store.Clients.ListReadyToActivate(ctx, dateOnly(now))
	if err != nil {
		return err
	}
	for _, client := range ready {
		advanced, err := s.Store.Clients.Advance(ctx, client.ID, model.ClientStatusActive)
		if err != nil {
			summary.Failures++
			s.Log.Error().Err(err).Uint64("client_id", client.ID).Msg("sweep could not activate client")
			continue
		}
		if advanced {
			summary.ClientsActivated++
			monitoring.SweepTransitions.WithLabelValues("client_activated").Inc()
		}
	}
	return nil
}

func (s *SweepService) refillVisits(ctx context.Context, now time.Time, summary *SweepSummary) error {
	active, err := s.Store.Contracts.ListByStatus(ctx, model.ContractStatusActive)
	if err != nil {
		return err
	}
	for _, contract := range active {
		generated, err := s.refill(ctx, contract.ID, now)
		if err != nil {
			summary.Failures++
			s.Log.Error().Err(err).Uint64("contract_id", contract.ID).Msg("sweep could not refill visits")
			continue
		}
		if generated > 0 {
			summary.VisitsGenerated += generated
			monitoring.SweepTransitions.WithLabelValues("visits_generated").Add(float64(generated))
		}
	}
	return nil
}

func (s *SweepService) refill(ctx context.Context, contractID uint64, now time.Time) (int, error) {
	unlock, err := s.lockContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var generated int
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		contract, err := tx.Contracts.GetByID(ctx, contractID)
		if err != nil {
			return err
		}
		visits, err := s.ensureUpcoming(ctx, tx, contract, now)
		generated = len(visits)
		return err
	})
	return generated, err
}
