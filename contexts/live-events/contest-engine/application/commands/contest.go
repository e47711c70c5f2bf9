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

// CreateContestCommand is the write-model input for opening a new contest.
type CreateContestCommand struct {
	Title              string
	Season             string
	VotingMode         entities.VotingMode
	SelectionMethod    entities.SelectionMethod
	FinalistCount      int
	MaxVotesPerVoter   int
	AllowSelfVote      bool
	SubmissionOpensAt  time.Time
	SubmissionClosesAt time.Time
	VotingOpensAt      time.Time
	VotingClosesAt     time.Time
}

// ContestUseCase creates contest instances. Phase moves live in PhaseUseCase.
type ContestUseCase struct {
	Contests ports.ContestRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// CreateContest opens a new contest in the submissions_open phase.
func (uc ContestUseCase) CreateContest(ctx context.Context, cmd CreateContestCommand) (entities.Contest, error) {
	logger := application.ResolveLogger(uc.Logger)

	title := strings.TrimSpace(cmd.Title)
	if title == "" ||
		!entities.IsSupportedVotingMode(cmd.VotingMode) ||
		!entities.IsSupportedSelectionMethod(cmd.SelectionMethod) ||
		cmd.MaxVotesPerVoter < 1 {
		logger.Warn("contest create validation failed",
			"event", "contest_create_validation_failed",
			"module", "live-events/contest-engine",
			"layer", "application",
			"title", title,
		)
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if cmd.SelectionMethod == entities.SelectionMethodRandom && cmd.FinalistCount < 1 {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if !cmd.SubmissionClosesAt.After(cmd.SubmissionOpensAt) ||
		!cmd.VotingClosesAt.After(cmd.VotingOpensAt) ||
		cmd.VotingOpensAt.Before(cmd.SubmissionClosesAt) {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	contestID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contest{}, err
	}
	contest := entities.Contest{
		ContestID:          contestID,
		Title:              title,
		Season:             strings.TrimSpace(cmd.Season),
		Phase:              entities.PhaseSubmissionsOpen,
		VotingMode:         cmd.VotingMode,
		SelectionMethod:    cmd.SelectionMethod,
		FinalistCount:      cmd.FinalistCount,
		MaxVotesPerVoter:   cmd.MaxVotesPerVoter,
		AllowSelfVote:      cmd.AllowSelfVote,
		SubmissionOpensAt:  cmd.SubmissionOpensAt.UTC(),
		SubmissionClosesAt: cmd.SubmissionClosesAt.UTC(),
		VotingOpensAt:      cmd.VotingOpensAt.UTC(),
		VotingClosesAt:     cmd.VotingClosesAt.UTC(),
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.Contests.SaveContest(ctx, contest); err != nil {
		return entities.Contest{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Contest{}, err
		}
		envelope, err := newContestEnvelope(eventID, "contest.created", contest.ContestID, now, map[string]any{
			"contest_id":  contest.ContestID,
			"title":       contest.Title,
			"season":      contest.Season,
			"voting_mode": string(contest.VotingMode),
			"phase":       string(contest.Phase),
		})
		if err != nil {
			return entities.Contest{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.Contest{}, err
		}
	}

	logger.Info("contest created",
		"event", "contest_created",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contest.ContestID,
		"voting_mode", string(contest.VotingMode),
		"selection_method", string(contest.SelectionMethod),
		"max_votes_per_voter", contest.MaxVotesPerVoter,
	)
	return contest, nil
}

func (uc ContestUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
