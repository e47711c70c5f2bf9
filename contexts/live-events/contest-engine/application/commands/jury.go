package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// RecordJuryScoreCommand upserts one panel score for a finalist.
type RecordJuryScoreCommand struct {
	ContestID string
	EntryID   string
	JuryKey   string
	Points    int
	ActorID   string
}

// JuryUseCase records externally supplied jury points. Scores are an optional
// tally input; a contest with no jury rows tallies on voter points alone.
type JuryUseCase struct {
	Contests ports.ContestRepository
	Entries  ports.EntryRepository
	Jury     ports.JuryScoreRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc JuryUseCase) RecordJuryScore(ctx context.Context, cmd RecordJuryScoreCommand) (entities.JuryScore, error) {
	logger := application.ResolveLogger(uc.Logger)

	contestID := strings.TrimSpace(cmd.ContestID)
	entryID := strings.TrimSpace(cmd.EntryID)
	juryKey := strings.TrimSpace(cmd.JuryKey)
	if contestID == "" || entryID == "" || juryKey == "" || cmd.Points < 0 {
		return entities.JuryScore{}, domainerrors.ErrInvalidInput
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return entities.JuryScore{}, err
	}
	if contest.Phase == entities.PhaseResults {
		return entities.JuryScore{}, domainerrors.ErrInvalidTransition
	}

	entry, err := uc.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return entities.JuryScore{}, err
	}
	if entry.ContestID != contestID || entry.Status != entities.EntryStatusSelected {
		return entities.JuryScore{}, domainerrors.ErrUnknownEntry
	}

	now := uc.now()
	score := entities.JuryScore{
		ContestID:  contestID,
		EntryID:    entryID,
		JuryKey:    juryKey,
		Points:     cmd.Points,
		RecordedAt: now,
	}
	if err := uc.Jury.UpsertJuryScore(ctx, score); err != nil {
		return entities.JuryScore{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.JuryScore{}, err
		}
		envelope, err := newContestEnvelope(eventID, "jury.scored", contestID, now, map[string]any{
			"contest_id": contestID,
			"entry_id":   entryID,
			"jury_key":   juryKey,
			"points":     cmd.Points,
			"actor_id":   strings.TrimSpace(cmd.ActorID),
		})
		if err != nil {
			return entities.JuryScore{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.JuryScore{}, err
		}
	}

	logger.Info("jury score recorded",
		"event", "contest_jury_score_recorded",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"entry_id", entryID,
		"jury_key", juryKey,
		"points", cmd.Points,
	)
	return score, nil
}

func (uc JuryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
