package commands

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// SelectionUseCase promotes pending entries into finalists. The draw is
// seeded by contest id so the same contest always selects the same set, and
// a second call on a contest with finalists is a no-op returning that set.
type SelectionUseCase struct {
	Contests ports.ContestRepository
	Entries  ports.EntryRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// SelectFinalists runs the selection for a contest, or returns the existing
// finalist set when selection already ran.
func (uc SelectionUseCase) SelectFinalists(ctx context.Context, contestID string) ([]entities.Entry, error) {
	logger := application.ResolveLogger(uc.Logger)
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return nil, domainerrors.ErrInvalidInput
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.Entries.ListEntriesByStatus(ctx, contestID, entities.EntryStatusSelected)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		logger.Info("finalist selection replayed existing set",
			"event", "contest_selection_replayed",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"finalist_count", len(existing),
		)
		return existing, nil
	}

	pending, err := uc.Entries.ListEntriesByStatus(ctx, contestID, entities.EntryStatusPending)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, domainerrors.ErrNoEligibleEntries
	}

	// Stable candidate order before any draw so the seeded shuffle is
	// reproducible regardless of storage iteration order.
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].SubmittedAt.Equal(pending[j].SubmittedAt) {
			return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
		}
		return pending[i].EntryID < pending[j].EntryID
	})

	promoted := pending
	if contest.SelectionMethod == entities.SelectionMethodRandom {
		rng := rand.New(rand.NewSource(selectionSeed(contestID)))
		shuffled := append([]entities.Entry(nil), pending...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		count := contest.FinalistCount
		if count > len(shuffled) {
			count = len(shuffled)
		}
		promoted = shuffled[:count]
	}

	now := uc.now()
	selectedIDs := make(map[string]struct{}, len(promoted))
	finalists := make([]entities.Entry, 0, len(promoted))
	for i := range promoted {
		entry := promoted[i]
		order := i + 1
		entry.Status = entities.EntryStatusSelected
		entry.RunningOrder = &order
		entry.SelectionMethod = contest.SelectionMethod
		entry.UpdatedAt = now
		finalists = append(finalists, entry)
		selectedIDs[entry.EntryID] = struct{}{}
	}
	rejectedIDs := make([]string, 0, len(pending)-len(promoted))
	for _, entry := range pending {
		if _, ok := selectedIDs[entry.EntryID]; !ok {
			rejectedIDs = append(rejectedIDs, entry.EntryID)
		}
	}

	if err := uc.Entries.PromoteEntries(ctx, contestID, finalists, rejectedIDs, now); err != nil {
		return nil, err
	}

	if uc.Outbox != nil {
		for _, entry := range finalists {
			eventID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}
			envelope, err := newContestEnvelope(eventID, "entry.selected", contestID, now, map[string]any{
				"contest_id":       contestID,
				"entry_id":         entry.EntryID,
				"owner_key":        entry.OwnerKey,
				"category":         entry.Category,
				"running_order":    *entry.RunningOrder,
				"selection_method": string(entry.SelectionMethod),
			})
			if err != nil {
				return nil, err
			}
			if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("finalists selected",
		"event", "contest_finalists_selected",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"selection_method", string(contest.SelectionMethod),
		"candidate_count", len(pending),
		"finalist_count", len(finalists),
	)
	return finalists, nil
}

func (uc SelectionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// selectionSeed derives a stable draw seed from the contest id so replays and
// audits reproduce the same finalist set.
func selectionSeed(contestID string) int64 {
	sum := sha256.Sum256([]byte(contestID))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
