package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

func TestTransitionPhaseCompareAndSwap(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.SaveContest(ctx, entities.Contest{
		ContestID: "contest-1",
		Phase:     entities.PhaseSubmissionsOpen,
		Version:   1,
	}); err != nil {
		t.Fatalf("save contest failed: %v", err)
	}

	updated, err := store.TransitionPhase(ctx, "contest-1", entities.PhaseSubmissionsOpen, entities.PhaseSelectionDone, 1, now)
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if updated.Phase != entities.PhaseSelectionDone || updated.Version != 2 {
		t.Fatalf("expected selection_done v2, got %s v%d", updated.Phase, updated.Version)
	}

	// A second mover holding the stale version must lose.
	if _, err := store.TransitionPhase(ctx, "contest-1", entities.PhaseSubmissionsOpen, entities.PhaseSelectionDone, 1, now); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on stale version, got %v", err)
	}
	if _, err := store.TransitionPhase(ctx, "missing", entities.PhaseSubmissionsOpen, entities.PhaseSelectionDone, 1, now); !errors.Is(err, domainerrors.ErrContestNotFound) {
		t.Fatalf("expected ErrContestNotFound, got %v", err)
	}
}

func TestInsertBallotCappedEnforcesCap(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b1", ContestID: "c1", VoterID: "v1", EntryID: "e1", Points: 1, CastAt: now,
	}, 2, true)
	if err != nil || !first.Inserted {
		t.Fatalf("first insert failed: %v inserted=%v", err, first.Inserted)
	}
	second, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b2", ContestID: "c1", VoterID: "v1", EntryID: "e2", Points: 1, CastAt: now,
	}, 2, true)
	if err != nil || !second.Inserted {
		t.Fatalf("second insert failed: %v", err)
	}
	if _, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b3", ContestID: "c1", VoterID: "v1", EntryID: "e3", Points: 1, CastAt: now,
	}, 2, true); !errors.Is(err, domainerrors.ErrVoteLimitReached) {
		t.Fatalf("expected ErrVoteLimitReached, got %v", err)
	}

	// Another voter is unaffected by the first voter's spent cap.
	other, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b4", ContestID: "c1", VoterID: "v2", EntryID: "e1", Points: 1, CastAt: now,
	}, 2, true)
	if err != nil || !other.Inserted {
		t.Fatalf("other voter insert failed: %v", err)
	}
}

func TestInsertBallotCappedDuplicateModes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	seed := entities.Ballot{BallotID: "b1", ContestID: "c1", VoterID: "v1", EntryID: "e1", Points: 1, CastAt: now}
	if _, err := store.InsertBallotCapped(ctx, seed, 5, true); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	replay, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b2", ContestID: "c1", VoterID: "v1", EntryID: "e1", Points: 1, CastAt: now,
	}, 5, true)
	if err != nil {
		t.Fatalf("single-vote duplicate must not error: %v", err)
	}
	if replay.Inserted || replay.Ballot.BallotID != "b1" {
		t.Fatalf("single-vote duplicate must return the existing ballot, got %+v", replay)
	}

	if _, err := store.InsertBallotCapped(ctx, entities.Ballot{
		BallotID: "b3", ContestID: "c1", VoterID: "v1", EntryID: "e1", Points: 8, CastAt: now,
	}, 5, false); !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("points-mode duplicate must fail, got %v", err)
	}
}

func TestPromoteEntriesOnlyTouchesPending(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	pending := entities.Entry{EntryID: "e1", ContestID: "c1", Status: entities.EntryStatusPending, SubmittedAt: now}
	withdrawn := entities.Entry{EntryID: "e2", ContestID: "c1", Status: entities.EntryStatusWithdrawn, SubmittedAt: now}
	if err := store.SaveEntry(ctx, pending); err != nil {
		t.Fatalf("save entry failed: %v", err)
	}
	if err := store.SaveEntry(ctx, withdrawn); err != nil {
		t.Fatalf("save entry failed: %v", err)
	}

	order := 1
	pending.Status = entities.EntryStatusSelected
	pending.RunningOrder = &order
	if err := store.PromoteEntries(ctx, "c1", []entities.Entry{pending}, []string{"e2"}, now); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	selected, err := store.ListEntriesByStatus(ctx, "c1", entities.EntryStatusSelected)
	if err != nil || len(selected) != 1 || selected[0].EntryID != "e1" {
		t.Fatalf("expected e1 selected, got %v err=%v", selected, err)
	}
	got, err := store.GetEntry(ctx, "e2")
	if err != nil {
		t.Fatalf("get entry failed: %v", err)
	}
	if got.Status != entities.EntryStatusWithdrawn {
		t.Fatalf("withdrawn entry must not be rejected, got %s", got.Status)
	}
}

func TestIdempotencyExpiry(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := ports.IdempotencyRecord{
		Key:         "idem-1",
		RequestHash: "hash-1",
		ResultID:    "entry-1",
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, found, err := store.Get(ctx, "idem-1", now); err != nil || !found {
		t.Fatalf("expected live record, found=%v err=%v", found, err)
	}
	if _, found, err := store.Get(ctx, "idem-1", now.Add(2*time.Hour)); err != nil || found {
		t.Fatalf("expected expired record dropped, found=%v err=%v", found, err)
	}

	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("re-put failed: %v", err)
	}
	conflicting := record
	conflicting.RequestHash = "hash-2"
	if err := store.Put(ctx, conflicting); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}
