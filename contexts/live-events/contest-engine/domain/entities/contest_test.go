package entities

import (
	"testing"
	"time"
)

func TestPhaseOrdering(t *testing.T) {
	next, ok := PhaseSubmissionsOpen.Next()
	if !ok || next != PhaseSelectionDone {
		t.Fatalf("expected selection_done after submissions_open, got %s", next)
	}
	if _, ok := PhaseResults.Next(); ok {
		t.Fatalf("results must be terminal")
	}
	if !PhaseSubmissionsOpen.Reachable(PhaseResults) {
		t.Fatalf("results must be reachable from submissions_open")
	}
	if PhaseVotingOpen.Reachable(PhaseSelectionDone) {
		t.Fatalf("phases must never move backwards")
	}
	if PhaseVotingOpen.Reachable(PhaseVotingOpen) {
		t.Fatalf("a phase must not be reachable from itself")
	}
	if Phase("paused").Valid() {
		t.Fatalf("unknown phase must be invalid")
	}
}

func TestContestWindows(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contest := Contest{
		Phase:              PhaseSubmissionsOpen,
		SubmissionOpensAt:  base,
		SubmissionClosesAt: base.Add(24 * time.Hour),
		VotingOpensAt:      base.Add(48 * time.Hour),
		VotingClosesAt:     base.Add(72 * time.Hour),
	}

	if contest.SubmissionWindowOpen(base.Add(-time.Minute)) {
		t.Fatalf("window must be closed before opens_at")
	}
	if !contest.SubmissionWindowOpen(base.Add(time.Hour)) {
		t.Fatalf("window must be open inside the interval")
	}
	if contest.SubmissionWindowOpen(base.Add(25 * time.Hour)) {
		t.Fatalf("window must be closed after closes_at")
	}

	contest.Phase = PhaseVotingOpen
	if contest.SubmissionWindowOpen(base.Add(time.Hour)) {
		t.Fatalf("submission window requires the submissions_open phase")
	}
	if !contest.VotingWindowOpen(base.Add(50 * time.Hour)) {
		t.Fatalf("voting window must be open inside the interval")
	}
	contest.Phase = PhaseVotingClosed
	if contest.VotingWindowOpen(base.Add(50 * time.Hour)) {
		t.Fatalf("voting window requires the voting_open phase")
	}
}
