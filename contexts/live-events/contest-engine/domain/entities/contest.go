package entities

import "time"

type Phase string

const (
	PhaseSubmissionsOpen Phase = "submissions_open"
	PhaseSelectionDone   Phase = "selection_done"
	PhaseEventLive       Phase = "event_live"
	PhaseVotingOpen      Phase = "voting_open"
	PhaseVotingClosed    Phase = "voting_closed"
	PhaseResults         Phase = "results"
)

// phaseOrder fixes the forward-only lifecycle. Results is terminal.
var phaseOrder = []Phase{
	PhaseSubmissionsOpen,
	PhaseSelectionDone,
	PhaseEventLive,
	PhaseVotingOpen,
	PhaseVotingClosed,
	PhaseResults,
}

func (p Phase) Index() int {
	for i, phase := range phaseOrder {
		if phase == p {
			return i
		}
	}
	return -1
}

func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Next returns the immediate successor phase and false when p is terminal
// or unknown.
func (p Phase) Next() (Phase, bool) {
	idx := p.Index()
	if idx < 0 || idx == len(phaseOrder)-1 {
		return "", false
	}
	return phaseOrder[idx+1], true
}

// Reachable reports whether target can be reached from p by walking forward.
func (p Phase) Reachable(target Phase) bool {
	from, to := p.Index(), target.Index()
	return from >= 0 && to > from
}

type VotingMode string

const (
	// VotingModeSingle is one vote per entry per voter, awards style.
	VotingModeSingle VotingMode = "single"
	// VotingModePoints is weighted point ballots spread across entries,
	// song-contest style.
	VotingModePoints VotingMode = "points"
)

type SelectionMethod string

const (
	SelectionMethodRandom SelectionMethod = "random"
	SelectionMethodAll    SelectionMethod = "all"
)

// Contest is one run of the phased competition (a season, a show).
type Contest struct {
	ContestID          string
	Title              string
	Season             string
	Phase              Phase
	VotingMode         VotingMode
	SelectionMethod    SelectionMethod
	FinalistCount      int
	MaxVotesPerVoter   int
	AllowSelfVote      bool
	SubmissionOpensAt  time.Time
	SubmissionClosesAt time.Time
	VotingOpensAt      time.Time
	VotingClosesAt     time.Time
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c Contest) SubmissionWindowOpen(now time.Time) bool {
	if c.Phase != PhaseSubmissionsOpen {
		return false
	}
	if now.Before(c.SubmissionOpensAt) {
		return false
	}
	return !now.After(c.SubmissionClosesAt)
}

func (c Contest) VotingWindowOpen(now time.Time) bool {
	if c.Phase != PhaseVotingOpen {
		return false
	}
	if now.Before(c.VotingOpensAt) {
		return false
	}
	return !now.After(c.VotingClosesAt)
}

func IsSupportedVotingMode(value VotingMode) bool {
	return value == VotingModeSingle || value == VotingModePoints
}

func IsSupportedSelectionMethod(value SelectionMethod) bool {
	return value == SelectionMethodRandom || value == SelectionMethodAll
}
