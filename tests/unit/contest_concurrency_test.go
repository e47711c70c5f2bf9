package unit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contestengine "encore/contexts/live-events/contest-engine"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	httptransport "encore/contexts/live-events/contest-engine/transport/http"
)

func TestConcurrentVotesRespectCap(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)

	entryIDs := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		owner := fmt.Sprintf("artist-%d", i)
		entry := submitEntry(t, module, contest.ContestID, owner, owner, "Song "+owner)
		entryIDs = append(entryIDs, entry.EntryID)
	}

	module.Store.SetNow(contestBase.Add(25 * time.Hour))
	advanceTo(t, module, contest.ContestID, "selection_done")
	module.Store.SetNow(contestBase.Add(49 * time.Hour))
	advanceTo(t, module, contest.ContestID, "voting_open")

	var accepted, capped atomic.Int32
	var wg sync.WaitGroup
	for i, entryID := range entryIDs {
		wg.Add(1)
		go func(i int, entryID string) {
			defer wg.Done()
			_, err := module.Handler.CastVoteHandler(ctx, contest.ContestID, "fan-1", fmt.Sprintf("idem-race-%d", i), httptransport.CastVoteRequest{
				EntryID: entryID,
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domainerrors.ErrVoteLimitReached):
				capped.Add(1)
			default:
				t.Errorf("unexpected vote error: %v", err)
			}
		}(i, entryID)
	}
	wg.Wait()

	if accepted.Load() != 3 {
		t.Fatalf("expected exactly 3 accepted votes, got %d", accepted.Load())
	}
	if capped.Load() != 5 {
		t.Fatalf("expected 5 capped votes, got %d", capped.Load())
	}
	count, err := module.Store.CountBallotsByVoter(ctx, contest.ContestID, "fan-1")
	if err != nil {
		t.Fatalf("count ballots failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("stored ballots must match the cap, got %d", count)
	}
}

func TestConcurrentPhaseAdvanceSingleWinner(t *testing.T) {
	module := contestengine.NewInMemoryModule(nil)
	ctx := context.Background()
	contest := newContest(t, module, "single", "all", 0, 3)
	submitEntry(t, module, contest.ContestID, "artist-1", "artist-1", "Neon Nights")

	module.Store.SetNow(contestBase.Add(25 * time.Hour))

	var moved, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.AdvancePhaseHandler(ctx, contest.ContestID, "producer-1", httptransport.AdvancePhaseRequest{
				TargetPhase: "selection_done",
			})
			switch {
			case err == nil:
				moved.Add(1)
			case errors.Is(err, domainerrors.ErrInvalidTransition):
				rejected.Add(1)
			default:
				t.Errorf("unexpected advance error: %v", err)
			}
		}()
	}
	wg.Wait()

	if moved.Load() != 1 {
		t.Fatalf("exactly one advance must win the compare-and-swap, got %d", moved.Load())
	}
	current, err := module.Handler.GetContestHandler(ctx, contest.ContestID)
	if err != nil {
		t.Fatalf("get contest failed: %v", err)
	}
	if current.Phase != "selection_done" || current.Version != contest.Version+1 {
		t.Fatalf("expected one phase step, got phase=%s version=%d", current.Phase, current.Version)
	}
}
