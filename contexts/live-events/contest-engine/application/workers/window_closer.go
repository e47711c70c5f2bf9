package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/application/commands"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// WindowCloser advances contests whose submission or voting window has
// expired. Each advance goes through the phase clock's CAS, so a concurrent
// admin advance simply wins the race and this cycle moves on.
type WindowCloser struct {
	Contests ports.ContestRepository
	Phases   commands.PhaseUseCase
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (w WindowCloser) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	advanced := 0
	expiredSubmissions, err := w.Contests.ListContestsInPhase(ctx, entities.PhaseSubmissionsOpen)
	if err != nil {
		return err
	}
	for _, contest := range expiredSubmissions {
		if now.Before(contest.SubmissionClosesAt) {
			continue
		}
		if err := w.advance(ctx, contest.ContestID, entities.PhaseSelectionDone); err != nil {
			return err
		}
		advanced++
	}

	expiredVoting, err := w.Contests.ListContestsInPhase(ctx, entities.PhaseVotingOpen)
	if err != nil {
		return err
	}
	for _, contest := range expiredVoting {
		if now.Before(contest.VotingClosesAt) {
			continue
		}
		if err := w.advance(ctx, contest.ContestID, entities.PhaseVotingClosed); err != nil {
			return err
		}
		advanced++
	}

	if advanced > 0 {
		logger.Info("window closer advanced expired contests",
			"event", "contest_window_closer_advanced",
			"module", "live-events/contest-engine",
			"layer", "worker",
			"advanced_count", advanced,
		)
	}
	return nil
}

func (w WindowCloser) advance(ctx context.Context, contestID string, target entities.Phase) error {
	_, err := w.Phases.AdvancePhase(ctx, commands.AdvancePhaseCommand{
		ContestID:   contestID,
		TargetPhase: target,
		ActorID:     "window-closer",
	})
	if err == nil {
		return nil
	}
	// A lost CAS race or an already-moved contest is not a cycle failure.
	if errors.Is(err, domainerrors.ErrInvalidTransition) || errors.Is(err, domainerrors.ErrConflict) {
		return nil
	}
	return err
}
