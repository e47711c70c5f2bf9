package entities

import "time"

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusSelected  EntryStatus = "selected"
	EntryStatusRejected  EntryStatus = "rejected"
	EntryStatusWithdrawn EntryStatus = "withdrawn"
)

// Entry is a candidate submission tied to an owner key and optional category.
// At most one pending or selected entry exists per (contest, owner, category);
// resubmission requires an explicit withdraw first.
type Entry struct {
	EntryID         string
	ContestID       string
	OwnerKey        string
	Category        string
	Title           string
	SubmittedBy     string
	SubmittedAt     time.Time
	Status          EntryStatus
	RunningOrder    *int
	SelectionMethod SelectionMethod
	UpdatedAt       time.Time
}

// Active reports whether the entry occupies its (owner, category) slot.
func (e Entry) Active() bool {
	return e.Status == EntryStatusPending || e.Status == EntryStatusSelected
}

// Ballot is one recorded vote from one voter. Points is 1 in single mode
// and the caller-chosen weight in points mode.
type Ballot struct {
	BallotID  string
	ContestID string
	VoterID   string
	EntryID   string
	Points    int
	CastAt    time.Time
}

// JuryScore is an externally supplied panel score for a selected entry.
// One row per (contest, entry, jury key); later writes supersede.
type JuryScore struct {
	ContestID  string
	EntryID    string
	JuryKey    string
	Points     int
	RecordedAt time.Time
}
