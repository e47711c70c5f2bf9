package ports

import (
	"context"
	"time"

	"encore/contexts/live-events/contest-engine/domain/entities"
	"encore/internal/shared/events"
)

type ContestRepository interface {
	SaveContest(ctx context.Context, contest entities.Contest) error
	GetContest(ctx context.Context, contestID string) (entities.Contest, error)
	ListContestsInPhase(ctx context.Context, phase entities.Phase) ([]entities.Contest, error)
	// TransitionPhase is the optimistic single-step phase move: it succeeds
	// only if the stored phase and version still match, so two concurrent
	// advances cannot both win.
	TransitionPhase(
		ctx context.Context,
		contestID string,
		from entities.Phase,
		to entities.Phase,
		version int64,
		updatedAt time.Time,
	) (entities.Contest, error)
}

type EntryRepository interface {
	SaveEntry(ctx context.Context, entry entities.Entry) error
	GetEntry(ctx context.Context, entryID string) (entities.Entry, error)
	// GetActiveEntry finds the pending or selected entry holding the
	// (owner, category) slot, if any.
	GetActiveEntry(ctx context.Context, contestID string, ownerKey string, category string) (entities.Entry, bool, error)
	ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error)
	ListEntriesByStatus(ctx context.Context, contestID string, status entities.EntryStatus) ([]entities.Entry, error)
	// PromoteEntries applies one selection outcome: promoted entries become
	// selected, the remaining pending ids become rejected. Implementations
	// only touch rows still pending so a lost race is a no-op.
	PromoteEntries(
		ctx context.Context,
		contestID string,
		promoted []entities.Entry,
		rejectedIDs []string,
		updatedAt time.Time,
	) error
}

// BallotInsertResult reports the outcome of a capped insert. Inserted is
// false when single-vote mode replayed an existing ballot.
type BallotInsertResult struct {
	Ballot   entities.Ballot
	Inserted bool
}

type BallotRepository interface {
	// InsertBallotCapped checks the per-voter cap and inserts as one atomic
	// operation. Two concurrent casts for the last slot must not both land.
	// In single-vote mode a duplicate (voter, entry) pair returns the
	// existing ballot instead of inserting; in points mode it fails with
	// ErrDuplicateBallot.
	InsertBallotCapped(
		ctx context.Context,
		ballot entities.Ballot,
		maxVotesPerVoter int,
		singleVote bool,
	) (BallotInsertResult, error)
	GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error)
	ListBallotsByContest(ctx context.Context, contestID string) ([]entities.Ballot, error)
	CountBallotsByVoter(ctx context.Context, contestID string, voterID string) (int, error)
}

type JuryScoreRepository interface {
	UpsertJuryScore(ctx context.Context, score entities.JuryScore) error
	ListJuryScoresByContest(ctx context.Context, contestID string) ([]entities.JuryScore, error)
}

// ActorDirectory is the identity-service projection the engine consults for
// self-vote checks. Absence of a mapping is not an error.
type ActorDirectory interface {
	OwnerKeyForActor(ctx context.Context, actorID string) (string, bool, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ResultID    string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope is the repository-wide event contract.
type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
