package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

const maxBallotPoints = 12

// CastVoteCommand is the write-model input for casting one ballot.
type CastVoteCommand struct {
	ContestID      string
	VoterID        string
	EntryID        string
	Points         int
	IdempotencyKey string
}

// CastVoteResult returns the final ballot plus a replay marker. Replayed is
// set both for idempotency-key replays and for single-vote duplicate clicks.
// VotesRemaining reports how many ballots the voter has left under the cap.
type CastVoteResult struct {
	Ballot         entities.Ballot
	Replayed       bool
	VotesRemaining int
}

// BallotUseCase accepts votes during voting_open only. The per-voter cap is
// enforced by the repository as a single conditional insert, never as a
// read-then-write pair.
type BallotUseCase struct {
	Contests       ports.ContestRepository
	Entries        ports.EntryRepository
	Ballots        ports.BallotRepository
	Actors         ports.ActorDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// CastVote validates phase, entry eligibility, self-vote and point rules,
// then hands the cap check to the repository's atomic insert.
func (uc BallotUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	contestID := strings.TrimSpace(cmd.ContestID)
	voterID := strings.TrimSpace(cmd.VoterID)
	entryID := strings.TrimSpace(cmd.EntryID)
	if contestID == "" || voterID == "" || entryID == "" {
		logger.Warn("vote cast validation failed",
			"event", "contest_vote_cast_validation_failed",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"voter_id", voterID,
			"entry_id", entryID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CastVoteResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCastVoteCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CastVoteResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CastVoteResult{}, domainerrors.ErrIdempotencyConflict
		}
		ballot, err := uc.Ballots.GetBallot(ctx, record.ResultID)
		if err != nil {
			return CastVoteResult{}, err
		}
		contest, err := uc.Contests.GetContest(ctx, contestID)
		if err != nil {
			return CastVoteResult{}, err
		}
		remaining, err := uc.votesRemaining(ctx, contest, voterID)
		if err != nil {
			return CastVoteResult{}, err
		}
		return CastVoteResult{Ballot: ballot, Replayed: true, VotesRemaining: remaining}, nil
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !contest.VotingWindowOpen(now) {
		return CastVoteResult{}, domainerrors.ErrPhaseNotOpen
	}

	entry, err := uc.Entries.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrEntryNotFound) {
			return CastVoteResult{}, domainerrors.ErrUnknownEntry
		}
		return CastVoteResult{}, err
	}
	// Raw pending entries are not votable; only promoted finalists are.
	if entry.ContestID != contestID || entry.Status != entities.EntryStatusSelected {
		return CastVoteResult{}, domainerrors.ErrUnknownEntry
	}

	if !contest.AllowSelfVote {
		if err := uc.rejectSelfVote(ctx, voterID, entry); err != nil {
			return CastVoteResult{}, err
		}
	}

	points := cmd.Points
	singleVote := contest.VotingMode == entities.VotingModeSingle
	if singleVote {
		points = 1
	} else if points < 1 || points > maxBallotPoints {
		return CastVoteResult{}, domainerrors.ErrInvalidInput
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	result, err := uc.Ballots.InsertBallotCapped(ctx, entities.Ballot{
		BallotID:  ballotID,
		ContestID: contestID,
		VoterID:   voterID,
		EntryID:   entryID,
		Points:    points,
		CastAt:    now,
	}, contest.MaxVotesPerVoter, singleVote)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !result.Inserted {
		// Single-vote duplicate click: idempotent success, no double count.
		logger.Info("vote cast replayed existing single-vote ballot",
			"event", "contest_vote_cast_duplicate_noop",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"voter_id", voterID,
			"entry_id", entryID,
		)
		remaining, err := uc.votesRemaining(ctx, contest, voterID)
		if err != nil {
			return CastVoteResult{}, err
		}
		return CastVoteResult{Ballot: result.Ballot, Replayed: true, VotesRemaining: remaining}, nil
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CastVoteResult{}, err
		}
		envelope, err := newContestEnvelope(eventID, "vote.cast", contestID, now, map[string]any{
			"contest_id": contestID,
			"ballot_id":  result.Ballot.BallotID,
			"voter_id":   voterID,
			"entry_id":   entryID,
			"points":     points,
		})
		if err != nil {
			return CastVoteResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CastVoteResult{}, err
		}
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		ResultID:    result.Ballot.BallotID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CastVoteResult{}, err
	}

	remaining, err := uc.votesRemaining(ctx, contest, voterID)
	if err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "contest_vote_cast",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"ballot_id", result.Ballot.BallotID,
		"voter_id", voterID,
		"entry_id", entryID,
		"points", points,
		"votes_remaining", remaining,
	)
	return CastVoteResult{Ballot: result.Ballot, VotesRemaining: remaining}, nil
}

// votesRemaining reports the voter's headroom under the contest cap.
func (uc BallotUseCase) votesRemaining(ctx context.Context, contest entities.Contest, voterID string) (int, error) {
	used, err := uc.Ballots.CountBallotsByVoter(ctx, contest.ContestID, voterID)
	if err != nil {
		return 0, err
	}
	remaining := contest.MaxVotesPerVoter - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// rejectSelfVote blocks a voter from voting for their own entry, either as
// its submitter or through the owner key the identity service maps them to.
func (uc BallotUseCase) rejectSelfVote(ctx context.Context, voterID string, entry entities.Entry) error {
	if strings.EqualFold(voterID, entry.SubmittedBy) {
		return domainerrors.ErrSelfVoteForbidden
	}
	if uc.Actors == nil {
		return nil
	}
	ownerKey, found, err := uc.Actors.OwnerKeyForActor(ctx, voterID)
	if err != nil {
		return err
	}
	if found && strings.EqualFold(ownerKey, entry.OwnerKey) {
		return domainerrors.ErrSelfVoteForbidden
	}
	return nil
}

func (uc BallotUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc BallotUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashCastVoteCommand(cmd CastVoteCommand) string {
	payload := map[string]string{
		"contest_id": strings.TrimSpace(cmd.ContestID),
		"voter_id":   strings.TrimSpace(cmd.VoterID),
		"entry_id":   strings.TrimSpace(cmd.EntryID),
		"points":     strconv.Itoa(cmd.Points),
		"op":         "cast_vote",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
