package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	contestengine "encore/contexts/live-events/contest-engine"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	httptransport "encore/contexts/live-events/contest-engine/transport/http"
)

var contestBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newContest(
	t *testing.T,
	module contestengine.Module,
	votingMode string,
	selectionMethod string,
	finalistCount int,
	maxVotes int,
) httptransport.ContestResponse {
	t.Helper()
	module.Store.SetNow(contestBase)
	contest, err := module.Handler.CreateContestHandler(context.Background(), httptransport.CreateContestRequest{
		Title:              "Season Finale",
		Season:             "2026",
		VotingMode:         votingMode,
		SelectionMethod:    selectionMethod,
		FinalistCount:      finalistCount,
		MaxVotesPerVoter:   maxVotes,
		SubmissionOpensAt:  contestBase,
		SubmissionClosesAt: contestBase.Add(24 * time.Hour),
		VotingOpensAt:      contestBase.Add(48 * time.Hour),
		VotingClosesAt:     contestBase.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create contest failed: %v", err)
	}
	return contest
}

func submitEntry(
	t *testing.T,
	module contestengine.Module,
	contestID string,
	actorID string,
	ownerKey string,
	title string,
) httptransport.EntryResponse {
	t.Helper()
	entry, err := module.Handler.SubmitEntryHandler(context.Background(), contestID, actorID, "idem-submit-"+ownerKey, httptransport.SubmitEntryRequest{
		OwnerKey: ownerKey,
		Title:    title,
	})
	if err != nil {
		t.Fatalf("submit entry for %s failed: %v", ownerKey, err)
	}
	return entry
}

func advanceTo(t *testing.T, module contestengine.Module, contestID string, target string) httptransport.ContestResponse {
	t.Helper()
	contest, err := module.Handler.AdvancePhaseHandler(context.Background(), contestID, "producer-1", httptransport.AdvancePhaseRequest{
		TargetPhase: target,
	})
	if err != nil {
		t.Fatalf("advance to %s failed: %v", target, err)
	}
	return contest
}

func TestContestFullLifecyclePointsMode(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "points", "all", 0, 2)

	entryA := submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")
	entryB := submitEntry(t, module, contest.ContestID, "artist-2", "artist-2", "Static Bloom")
	entryC := submitEntry(t, module, contest.ContestID, "artist-3", "artist-3", "Glass River")

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	selected := advanceTo(t, module, contest.ContestID, "selection_done")
	if selected.Phase != "selection_done" {
		t.Fatalf("expected selection_done, got %s", selected.Phase)
	}
	finalists, err := module.Handler.ListFinalistsHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("list finalists failed: %v", err)
	}
	if len(finalists.Items) != 3 {
		t.Fatalf("select-all must promote every entry, got %d", len(finalists.Items))
	}
	for _, finalist := range finalists.Items {
		if finalist.RunningOrder == nil {
			t.Fatalf("finalist %s has no running order", finalist.EntryID)
		}
	}

	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	live := advanceTo(t, module, contest.ContestID, "voting_open")
	if live.Phase != "voting_open" {
		t.Fatalf("expected voting_open, got %s", live.Phase)
	}

	first, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-vote-1", httptransport.CastVoteRequest{
		EntryID: entryA.EntryID,
		Points:  8,
	})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if first.VotesRemaining != 1 {
		t.Fatalf("expected 1 vote remaining after first ballot, got %d", first.VotesRemaining)
	}
	second, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-vote-2", httptransport.CastVoteRequest{
		EntryID: entryB.EntryID,
		Points:  6,
	})
	if err != nil {
		t.Fatalf("second vote failed: %v", err)
	}
	if second.VotesRemaining != 0 {
		t.Fatalf("expected 0 votes remaining at the cap, got %d", second.VotesRemaining)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-vote-3", httptransport.CastVoteRequest{
		EntryID: entryC.EntryID,
		Points:  2,
	}); !errors.Is(err, domainerrors.ErrVoteLimitReached) {
		t.Fatalf("expected ErrVoteLimitReached on third vote, got %v", err)
	}

	// Same voter, same entry, points mode: a hard duplicate.
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-vote-4", httptransport.CastVoteRequest{
		EntryID: entryA.EntryID,
		Points:  3,
	}); !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected ErrDuplicateBallot, got %v", err)
	}

	// Idempotency-key replay returns the original ballot without recounting.
	replay, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-vote-1", httptransport.CastVoteRequest{
		EntryID: entryA.EntryID,
		Points:  8,
	})
	if err != nil {
		t.Fatalf("replay vote failed: %v", err)
	}
	if !replay.Replayed || replay.BallotID != first.BallotID {
		t.Fatalf("expected replayed ballot %s, got %+v", first.BallotID, replay)
	}
	if replay.VotesRemaining != 0 {
		t.Fatalf("replay must report current headroom, got %d", replay.VotesRemaining)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-2", "idem-vote-5", httptransport.CastVoteRequest{
		EntryID: entryB.EntryID,
		Points:  12,
	}); err != nil {
		t.Fatalf("fan-2 vote failed: %v", err)
	}

	if _, err := module.Handler.RecordJuryScoreHandler(ctx, contest.ContestID, "producer-1", httptransport.JuryScoreRequest{
		EntryID: entryA.EntryID,
		JuryKey: "panel-1",
		Points:  7,
	}); err != nil {
		t.Fatalf("jury score failed: %v", err)
	}

	module.Store.SetNow(contestBase.Add(73 * time.Hour))
	final := advanceTo(t, module, contest.ContestID, "results")
	if final.Phase != "results" {
		t.Fatalf("expected results, got %s", final.Phase)
	}

	tally, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if !tally.Final || len(tally.Items) != 3 {
		t.Fatalf("expected final tally over 3 finalists, got %+v", tally)
	}
	// entry-b: 6+12=18 voter points; entry-a: 8 voter + 7 jury = 15.
	if tally.Items[0].EntryID != entryB.EntryID || tally.Items[0].TotalPoints != 18 || !tally.Items[0].IsWinner {
		t.Fatalf("expected %s winning with 18, got %+v", entryB.EntryID, tally.Items[0])
	}
	if tally.Items[1].EntryID != entryA.EntryID || tally.Items[1].TotalPoints != 15 || tally.Items[1].JuryPoints != 7 {
		t.Fatalf("expected %s second with 15, got %+v", entryA.EntryID, tally.Items[1])
	}

	again, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("second tally failed: %v", err)
	}
	for i := range tally.Items {
		if tally.Items[i] != again.Items[i] {
			t.Fatalf("tally must be deterministic, row %d differs", i)
		}
	}
}

func TestSingleModeDuplicateVoteIsIdempotent(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 5)

	entry := submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")
	submitEntry(t, module, contest.ContestID, "artist-2", "artist-2", "Static Bloom")

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanceTo(t, module, contest.ContestID, "voting_open")

	first, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-a", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
		Points:  9,
	})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if first.Points != 1 {
		t.Fatalf("single mode must force 1 point, got %d", first.Points)
	}

	// Duplicate click with a fresh key still lands on the existing ballot.
	second, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-b", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	})
	if err != nil {
		t.Fatalf("duplicate single vote must not error: %v", err)
	}
	if !second.Replayed || second.BallotID != first.BallotID {
		t.Fatalf("expected idempotent duplicate, got %+v", second)
	}
	if second.VotesRemaining != 4 {
		t.Fatalf("duplicate must not consume headroom, got %d remaining", second.VotesRemaining)
	}

	tally, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	for _, item := range tally.Items {
		if item.EntryID == entry.EntryID && item.VoterPoints != 1 {
			t.Fatalf("duplicate vote must not double count, got %d", item.VoterPoints)
		}
	}
}

func TestSubmitOutsideWindowAndDuplicateSlot(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)

	entry := submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	// Same (owner, category) slot while the first entry is active.
	if _, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-1", "idem-dup", httptransport.SubmitEntryRequest{
		OwnerKey: "artist-1",
		Title:    "Second Try",
	}); !errors.Is(err, domainerrors.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	// Withdraw frees the slot for a resubmission.
	if _, err := module.Handler.WithdrawEntryHandler(ctx, contest.ContestID, entry.EntryID, "artist-1"); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if _, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-1", "idem-resubmit", httptransport.SubmitEntryRequest{
		OwnerKey: "artist-1",
		Title:    "Second Try",
	}); err != nil {
		t.Fatalf("resubmission after withdraw failed: %v", err)
	}

	// Only the submitter may withdraw.
	fresh := submitEntry(t, module, contest.ContestID, "artist-2", "artist-2", "Static Bloom")
	if _, err := module.Handler.WithdrawEntryHandler(ctx, contest.ContestID, fresh.EntryID, "artist-1"); !errors.Is(err, domainerrors.ErrNotEntryOwner) {
		t.Fatalf("expected ErrNotEntryOwner, got %v", err)
	}

	module.Store.SetNow(contestBase.Add(30 * time.Hour))
	if _, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-3", "idem-late", httptransport.SubmitEntryRequest{
		OwnerKey: "artist-3",
		Title:    "Too Late",
	}); !errors.Is(err, domainerrors.ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed, got %v", err)
	}
}

func TestSubmitIdempotencyReplay(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)

	request := httptransport.SubmitEntryRequest{OwnerKey: "artist-1", Title: "Neon Nights"}
	first, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-1", "idem-1", request)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	second, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-1", "idem-1", request)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed || second.EntryID != first.EntryID {
		t.Fatalf("expected replayed entry %s, got %+v", first.EntryID, second)
	}

	// Same key with a different payload is a conflict, not a replay.
	if _, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-1", "idem-1", httptransport.SubmitEntryRequest{
		OwnerKey: "artist-1",
		Title:    "Different Song",
	}); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}

	if _, err := module.Handler.SubmitEntryHandler(ctx, contest.ContestID, "artist-2", "", httptransport.SubmitEntryRequest{
		OwnerKey: "artist-2",
		Title:    "No Key",
	}); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestVotingGateRequiresFinalists(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "random", 3, 3)

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	stalled := advanceTo(t, module, contest.ContestID, "selection_done")
	if stalled.Phase != "selection_done" {
		t.Fatalf("empty contest must still reach selection_done, got %s", stalled.Phase)
	}

	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	if _, err := module.Handler.AdvancePhaseHandler(ctx, contest.ContestID, "producer-1", httptransport.AdvancePhaseRequest{
		TargetPhase: "voting_open",
	}); !errors.Is(err, domainerrors.ErrNoEligibleEntries) {
		t.Fatalf("expected ErrNoEligibleEntries, got %v", err)
	}

	// Fail closed: the rejected advance must not commit any intermediate
	// step, so the phase is exactly where it started.
	current, err := module.Handler.GetContestHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("get contest failed: %v", err)
	}
	if current.Phase != "selection_done" {
		t.Fatalf("phase must remain selection_done after failed advance, got %s", current.Phase)
	}
	if current.Version != stalled.Version {
		t.Fatalf("version must not move on a failed advance, got %d want %d", current.Version, stalled.Version)
	}
}

func TestTargetedAdvanceRunsSelectionBeforeVotingGate(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)
	submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	// A single targeted advance across the selection step must see the
	// pending entry as a future finalist, not reject at the voting gate.
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanced := advanceTo(t, module, contest.ContestID, "voting_open")
	if advanced.Phase != "voting_open" {
		t.Fatalf("expected voting_open, got %s", advanced.Phase)
	}
	finalists, err := module.Handler.ListFinalistsHandler(ctx, contest.ContestID)
	if err != nil || len(finalists.Items) != 1 {
		t.Fatalf("expected 1 finalist after walk, got %d err=%v", len(finalists.Items), err)
	}
}

func TestPhaseRulesAndForcedAdvance(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)
	submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	// The submission window is still open, so a plain advance is rejected.
	if _, err := module.Handler.AdvancePhaseHandler(ctx, contest.ContestID, "producer-1", httptransport.AdvancePhaseRequest{
		TargetPhase: "selection_done",
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before window close, got %v", err)
	}

	forced, err := module.Handler.AdvancePhaseHandler(ctx, contest.ContestID, "producer-1", httptransport.AdvancePhaseRequest{
		TargetPhase: "selection_done",
		Force:       true,
	})
	if err != nil {
		t.Fatalf("forced advance failed: %v", err)
	}
	if forced.Phase != "selection_done" {
		t.Fatalf("expected selection_done after force, got %s", forced.Phase)
	}

	// Backwards and same-phase targets are invalid even with force.
	if _, err := module.Handler.AdvancePhaseHandler(ctx, contest.ContestID, "producer-1", httptransport.AdvancePhaseRequest{
		TargetPhase: "submissions_open",
		Force:       true,
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going backwards, got %v", err)
	}
}

func TestRandomSelectionDeterministicAndIdempotent(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "random", 2, 3)

	for _, owner := range []string{"artist-1", "artist-2", "artist-3", "artist-4", "artist-5"} {
		submitEntry(t, module, contest.ContestID, owner, owner, "Song by "+owner)
	}

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")

	first, err := module.Handler.ListFinalistsHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("list finalists failed: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 finalists, got %d", len(first.Items))
	}

	// Re-running selection returns the same set instead of drawing again.
	second, err := module.Handler.SelectFinalistsHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("selection replay failed: %v", err)
	}
	if len(second.Items) != len(first.Items) {
		t.Fatalf("selection replay changed the finalist count")
	}
	for i := range first.Items {
		if first.Items[i].EntryID != second.Items[i].EntryID {
			t.Fatalf("selection replay changed the finalist set")
		}
	}

	tally, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(tally.Items) != 2 {
		t.Fatalf("only finalists may be tallied, got %d rows", len(tally.Items))
	}
}

func TestSelfVoteRejected(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)

	entry := submitEntry(t, module, contest.ContestID, "artist-1", "owner-1", "Neon Nights")
	submitEntry(t, module, contest.ContestID, "artist-2", "owner-2", "Static Bloom")
	module.Store.SetActorOwnerKey("superfan-7", "owner-1")

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanceTo(t, module, contest.ContestID, "voting_open")

	// Blocked as the submitter.
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "artist-1", "idem-self-1", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	}); !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected ErrSelfVoteForbidden for submitter, got %v", err)
	}
	// Blocked through the identity mapping to the owner key.
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "superfan-7", "idem-self-2", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	}); !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected ErrSelfVoteForbidden via owner key, got %v", err)
	}
	// Anyone else is fine.
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-ok", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	}); err != nil {
		t.Fatalf("unrelated voter failed: %v", err)
	}
}

func TestVotesRejectedOutsideVotingPhase(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)
	entry := submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-early", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	}); !errors.Is(err, domainerrors.ErrPhaseNotOpen) {
		t.Fatalf("expected ErrPhaseNotOpen during submissions, got %v", err)
	}

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanceTo(t, module, contest.ContestID, "voting_open")
	module.Store.SetNow(contestBase.Add(80 * time.Hour))

	// Past the voting window the phase may still read voting_open, but the
	// window check fails closed.
	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-late", httptransport.CastVoteRequest{
		EntryID: entry.EntryID,
	}); !errors.Is(err, domainerrors.ErrPhaseNotOpen) {
		t.Fatalf("expected ErrPhaseNotOpen after window close, got %v", err)
	}
}

func TestUnknownEntryVote(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "random", 1, 3)

	submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")
	submitEntry(t, module, contest.ContestID, "artist-2", "artist-2", "Static Bloom")

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanceTo(t, module, contest.ContestID, "voting_open")

	finalists, err := module.Handler.ListFinalistsHandler(ctx, contest.ContestID)
	if err != nil || len(finalists.Items) != 1 {
		t.Fatalf("expected 1 finalist, got %v err=%v", finalists, err)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", "idem-missing", httptransport.CastVoteRequest{
		EntryID: "no-such-entry",
	}); !errors.Is(err, domainerrors.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry for missing entry, got %v", err)
	}

	tally, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(tally.Items) != 1 {
		t.Fatalf("expected single finalist tally row, got %d", len(tally.Items))
	}
}

func TestJuryScoreRules(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)

	entry := submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	// Pending entries cannot receive jury points.
	if _, err := module.Handler.RecordJuryScoreHandler(ctx, contest.ContestID, "producer-1", httptransport.JuryScoreRequest{
		EntryID: entry.EntryID,
		JuryKey: "panel-1",
		Points:  5,
	}); !errors.Is(err, domainerrors.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry for pending entry, got %v", err)
	}

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")

	if _, err := module.Handler.RecordJuryScoreHandler(ctx, contest.ContestID, "producer-1", httptransport.JuryScoreRequest{
		EntryID: entry.EntryID,
		JuryKey: "panel-1",
		Points:  5,
	}); err != nil {
		t.Fatalf("jury score failed: %v", err)
	}
	// Same jury key supersedes instead of accumulating.
	if _, err := module.Handler.RecordJuryScoreHandler(ctx, contest.ContestID, "producer-1", httptransport.JuryScoreRequest{
		EntryID: entry.EntryID,
		JuryKey: "panel-1",
		Points:  9,
	}); err != nil {
		t.Fatalf("jury rescore failed: %v", err)
	}

	tally, err := module.Handler.TallyHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(tally.Items) != 1 || tally.Items[0].JuryPoints != 9 {
		t.Fatalf("expected superseded jury points 9, got %+v", tally.Items)
	}

	module.Store.SetNow(contestBase.Add(80 * time.Hour))
	advanceTo(t, module, contest.ContestID, "results")
	if _, err := module.Handler.RecordJuryScoreHandler(ctx, contest.ContestID, "producer-1", httptransport.JuryScoreRequest{
		EntryID: entry.EntryID,
		JuryKey: "panel-2",
		Points:  3,
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after results, got %v", err)
	}
}
