package entities

import (
	"sort"
	"time"
)

// TallyRow is a derived standing for one entry. Never persisted; recomputed
// from ballots and jury scores on demand.
type TallyRow struct {
	EntryID     string
	OwnerKey    string
	Category    string
	JuryPoints  int
	VoterPoints int
	TotalPoints int
	Placement   int
	IsWinner    bool

	submittedAt time.Time
}

// ComputeTally folds ballots and jury scores into ranked rows. Ranking is per
// category (the empty category forms a single overall group): total points
// descending, then voter points descending, then earlier submission, then
// entry id as the final stable key. Placement restarts at 1 per category and
// the top row of each category is the winner.
func ComputeTally(entries []Entry, ballots []Ballot, juryScores []JuryScore) []TallyRow {
	voterPoints := make(map[string]int)
	for _, ballot := range ballots {
		voterPoints[ballot.EntryID] += ballot.Points
	}
	juryPoints := make(map[string]int)
	for _, score := range juryScores {
		juryPoints[score.EntryID] += score.Points
	}

	rows := make([]TallyRow, 0, len(entries))
	for _, entry := range entries {
		if entry.Status != EntryStatusSelected {
			continue
		}
		jury := juryPoints[entry.EntryID]
		voter := voterPoints[entry.EntryID]
		rows = append(rows, TallyRow{
			EntryID:     entry.EntryID,
			OwnerKey:    entry.OwnerKey,
			Category:    entry.Category,
			JuryPoints:  jury,
			VoterPoints: voter,
			TotalPoints: jury + voter,
			submittedAt: entry.SubmittedAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.VoterPoints != b.VoterPoints {
			return a.VoterPoints > b.VoterPoints
		}
		if !a.submittedAt.Equal(b.submittedAt) {
			return a.submittedAt.Before(b.submittedAt)
		}
		return a.EntryID < b.EntryID
	})

	placement := 0
	lastCategory := ""
	first := true
	for i := range rows {
		if first || rows[i].Category != lastCategory {
			placement = 0
			lastCategory = rows[i].Category
			first = false
		}
		placement++
		rows[i].Placement = placement
		rows[i].IsWinner = placement == 1
	}
	return rows
}
