package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateContestRequest struct {
	Title              string    `json:"title"`
	Season             string    `json:"season,omitempty"`
	VotingMode         string    `json:"voting_mode"`
	SelectionMethod    string    `json:"selection_method"`
	FinalistCount      int       `json:"finalist_count,omitempty"`
	MaxVotesPerVoter   int       `json:"max_votes_per_voter"`
	AllowSelfVote      bool      `json:"allow_self_vote,omitempty"`
	SubmissionOpensAt  time.Time `json:"submission_opens_at"`
	SubmissionClosesAt time.Time `json:"submission_closes_at"`
	VotingOpensAt      time.Time `json:"voting_opens_at"`
	VotingClosesAt     time.Time `json:"voting_closes_at"`
}

type ContestResponse struct {
	ContestID          string    `json:"contest_id"`
	Title              string    `json:"title"`
	Season             string    `json:"season,omitempty"`
	Phase              string    `json:"phase"`
	VotingMode         string    `json:"voting_mode"`
	SelectionMethod    string    `json:"selection_method"`
	FinalistCount      int       `json:"finalist_count"`
	MaxVotesPerVoter   int       `json:"max_votes_per_voter"`
	AllowSelfVote      bool      `json:"allow_self_vote"`
	SubmissionOpensAt  time.Time `json:"submission_opens_at"`
	SubmissionClosesAt time.Time `json:"submission_closes_at"`
	VotingOpensAt      time.Time `json:"voting_opens_at"`
	VotingClosesAt     time.Time `json:"voting_closes_at"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type AdvancePhaseRequest struct {
	TargetPhase string `json:"target_phase,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

type SubmitEntryRequest struct {
	OwnerKey    string `json:"owner_key"`
	Category    string `json:"category,omitempty"`
	Title       string `json:"title"`
	SubmittedBy string `json:"submitted_by,omitempty"`
}

type EntryResponse struct {
	EntryID      string    `json:"entry_id"`
	ContestID    string    `json:"contest_id"`
	OwnerKey     string    `json:"owner_key"`
	Category     string    `json:"category,omitempty"`
	Title        string    `json:"title"`
	SubmittedBy  string    `json:"submitted_by,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Status       string    `json:"status"`
	RunningOrder *int      `json:"running_order,omitempty"`
	Replayed     bool      `json:"replayed,omitempty"`
}

type EntryListResponse struct {
	Items []EntryResponse `json:"items"`
}

type CastVoteRequest struct {
	EntryID string `json:"entry_id"`
	Points  int    `json:"points,omitempty"`
}

type BallotResponse struct {
	BallotID       string    `json:"ballot_id"`
	ContestID      string    `json:"contest_id"`
	VoterID        string    `json:"voter_id"`
	EntryID        string    `json:"entry_id"`
	Points         int       `json:"points"`
	CastAt         time.Time `json:"cast_at"`
	Replayed       bool      `json:"replayed,omitempty"`
	VotesRemaining int       `json:"votes_remaining"`
}

type JuryScoreRequest struct {
	EntryID string `json:"entry_id"`
	JuryKey string `json:"jury_key"`
	Points  int    `json:"points"`
}

type JuryScoreResponse struct {
	ContestID  string    `json:"contest_id"`
	EntryID    string    `json:"entry_id"`
	JuryKey    string    `json:"jury_key"`
	Points     int       `json:"points"`
	RecordedAt time.Time `json:"recorded_at"`
}

type TallyItem struct {
	EntryID     string `json:"entry_id"`
	OwnerKey    string `json:"owner_key"`
	Category    string `json:"category,omitempty"`
	JuryPoints  int    `json:"jury_points"`
	VoterPoints int    `json:"voter_points"`
	TotalPoints int    `json:"total_points"`
	Placement   int    `json:"placement"`
	IsWinner    bool   `json:"is_winner"`
}

type TallyResponse struct {
	ContestID string      `json:"contest_id"`
	Phase     string      `json:"phase"`
	Final     bool        `json:"final"`
	Items     []TallyItem `json:"items"`
}
