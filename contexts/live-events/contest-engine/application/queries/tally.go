package queries

import (
	"context"
	"strings"

	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// TallyUseCase is the read side: standings, finalist lists, contest lookup.
// Tally is a pure projection of ballots plus jury scores and never mutates
// state, so it is safe to serve as a live leaderboard while voting is open.
type TallyUseCase struct {
	Contests ports.ContestRepository
	Entries  ports.EntryRepository
	Ballots  ports.BallotRepository
	Jury     ports.JuryScoreRepository
}

func (uc TallyUseCase) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	return uc.Contests.GetContest(ctx, strings.TrimSpace(contestID))
}

func (uc TallyUseCase) ListFinalists(ctx context.Context, contestID string) ([]entities.Entry, error) {
	return uc.Entries.ListEntriesByStatus(ctx, strings.TrimSpace(contestID), entities.EntryStatusSelected)
}

// Tally recomputes the full standing from stored ballots and jury scores.
// Same ballot set in, same rows out.
func (uc TallyUseCase) Tally(ctx context.Context, contestID string) ([]entities.TallyRow, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Contests.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	entries, err := uc.Entries.ListEntriesByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	ballots, err := uc.Ballots.ListBallotsByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	juryScores, err := uc.Jury.ListJuryScoresByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return entities.ComputeTally(entries, ballots, juryScores), nil
}
