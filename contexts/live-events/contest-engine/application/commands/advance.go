package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// AdvancePhaseCommand moves a contest forward. TargetPhase empty means one
// step. Force bypasses window-expiry gating (admin override, logged) but
// never the forward-only ordering or the finalist requirement.
type AdvancePhaseCommand struct {
	ContestID   string
	TargetPhase entities.Phase
	Force       bool
	ActorID     string
}

// PhaseUseCase is the phase clock. Each successful step is a compare-and-swap
// on (phase, version) so concurrent advances cannot double-move, and each step
// emits a contest.phase_changed event.
type PhaseUseCase struct {
	Contests  ports.ContestRepository
	Entries   ports.EntryRepository
	Selection SelectionUseCase
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// AdvancePhase walks the contest forward one gate-checked step at a time
// until the target (or a single step with no target).
func (uc PhaseUseCase) AdvancePhase(ctx context.Context, cmd AdvancePhaseCommand) (entities.Contest, error) {
	logger := application.ResolveLogger(uc.Logger)
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return entities.Contest{}, err
	}

	target := cmd.TargetPhase
	if target == "" {
		next, ok := contest.Phase.Next()
		if !ok {
			return entities.Contest{}, domainerrors.ErrInvalidTransition
		}
		target = next
	}
	if !target.Valid() || !contest.Phase.Reachable(target) {
		logger.Warn("phase advance rejected",
			"event", "contest_phase_advance_rejected",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"from", string(contest.Phase),
			"target", string(target),
		)
		return entities.Contest{}, domainerrors.ErrInvalidTransition
	}

	// Every gate on the walk is validated before the first step commits, so
	// a multi-phase advance either lands on the target or leaves the contest
	// where it was.
	if err := uc.checkGates(ctx, contest, target, cmd.Force); err != nil {
		return entities.Contest{}, err
	}

	for contest.Phase != target {
		next, ok := contest.Phase.Next()
		if !ok {
			return entities.Contest{}, domainerrors.ErrInvalidTransition
		}
		contest, err = uc.advanceStep(ctx, contest, next, cmd.Force, cmd.ActorID)
		if err != nil {
			return entities.Contest{}, err
		}
	}
	return contest, nil
}

func (uc PhaseUseCase) checkGates(
	ctx context.Context,
	contest entities.Contest,
	target entities.Phase,
	force bool,
) error {
	now := uc.now()
	phase := contest.Phase
	selectionOnWalk := false
	for phase != target {
		next, ok := phase.Next()
		if !ok {
			return domainerrors.ErrInvalidTransition
		}
		switch phase {
		case entities.PhaseSubmissionsOpen:
			if !force && now.Before(contest.SubmissionClosesAt) {
				return domainerrors.ErrInvalidTransition
			}
		case entities.PhaseVotingOpen:
			if !force && now.Before(contest.VotingClosesAt) {
				return domainerrors.ErrInvalidTransition
			}
		}
		if phase == entities.PhaseSubmissionsOpen && next == entities.PhaseSelectionDone {
			selectionOnWalk = true
		}
		if next == entities.PhaseVotingOpen {
			selected, err := uc.Entries.ListEntriesByStatus(ctx, contest.ContestID, entities.EntryStatusSelected)
			if err != nil {
				return err
			}
			eligible := len(selected) > 0
			if !eligible && selectionOnWalk {
				// Selection runs later on this walk and promotes at least
				// one pending entry if any exist.
				pending, err := uc.Entries.ListEntriesByStatus(ctx, contest.ContestID, entities.EntryStatusPending)
				if err != nil {
					return err
				}
				eligible = len(pending) > 0
			}
			if !eligible {
				return domainerrors.ErrNoEligibleEntries
			}
		}
		phase = next
	}
	return nil
}

func (uc PhaseUseCase) advanceStep(
	ctx context.Context,
	contest entities.Contest,
	to entities.Phase,
	force bool,
	actorID string,
) (entities.Contest, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	from := contest.Phase

	switch from {
	case entities.PhaseSubmissionsOpen:
		if !force && now.Before(contest.SubmissionClosesAt) {
			return entities.Contest{}, domainerrors.ErrInvalidTransition
		}
	case entities.PhaseVotingOpen:
		if !force && now.Before(contest.VotingClosesAt) {
			return entities.Contest{}, domainerrors.ErrInvalidTransition
		}
	}
	if to == entities.PhaseVotingOpen {
		selected, err := uc.Entries.ListEntriesByStatus(ctx, contest.ContestID, entities.EntryStatusSelected)
		if err != nil {
			return entities.Contest{}, err
		}
		if len(selected) == 0 {
			// Fail closed: the phase stays where it is.
			return entities.Contest{}, domainerrors.ErrNoEligibleEntries
		}
	}

	updated, err := uc.Contests.TransitionPhase(ctx, contest.ContestID, from, to, contest.Version, now)
	if err != nil {
		return entities.Contest{}, err
	}

	if from == entities.PhaseSubmissionsOpen && to == entities.PhaseSelectionDone {
		// Selection is idempotent; a contest that closed with no entries
		// still reaches selection_done and is blocked at the voting gate.
		if _, err := uc.Selection.SelectFinalists(ctx, contest.ContestID); err != nil &&
			!errors.Is(err, domainerrors.ErrNoEligibleEntries) {
			return entities.Contest{}, err
		}
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Contest{}, err
		}
		envelope, err := newContestEnvelope(eventID, "contest.phase_changed", contest.ContestID, now, map[string]any{
			"contest_id": contest.ContestID,
			"from":       string(from),
			"to":         string(to),
			"at":         now.Format(time.RFC3339),
			"forced":     force,
			"actor_id":   strings.TrimSpace(actorID),
		})
		if err != nil {
			return entities.Contest{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.Contest{}, err
		}
	}

	logger.Info("contest phase advanced",
		"event", "contest_phase_advanced",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contest.ContestID,
		"from", string(from),
		"to", string(to),
		"forced", force,
		"actor_id", strings.TrimSpace(actorID),
	)
	return updated, nil
}

func (uc PhaseUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
