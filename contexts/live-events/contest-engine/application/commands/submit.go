package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "encore/contexts/live-events/contest-engine/application"
	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"
)

// SubmitEntryCommand is the write-model input for entry submission.
type SubmitEntryCommand struct {
	ContestID      string
	OwnerKey       string
	Category       string
	Title          string
	SubmittedBy    string
	IdempotencyKey string
}

// SubmitEntryResult returns the final entry state plus a replay marker for
// the transport layer.
type SubmitEntryResult struct {
	Entry    entities.Entry
	Replayed bool
}

// WithdrawEntryCommand requests an actor-owned entry withdrawal, freeing the
// (owner, category) slot for a resubmission.
type WithdrawEntryCommand struct {
	ContestID string
	EntryID   string
	ActorID   string
}

// EntryUseCase owns the submission window rules: entries land only while
// submissions are open and never silently overwrite an active entry.
type EntryUseCase struct {
	Contests       ports.ContestRepository
	Entries        ports.EntryRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// SubmitEntry creates a pending entry for (owner, category). Replay-safe via
// idempotency key + request hash.
func (uc EntryUseCase) SubmitEntry(ctx context.Context, cmd SubmitEntryCommand) (SubmitEntryResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	contestID := strings.TrimSpace(cmd.ContestID)
	ownerKey := strings.TrimSpace(cmd.OwnerKey)
	submittedBy := strings.TrimSpace(cmd.SubmittedBy)
	if contestID == "" || ownerKey == "" || submittedBy == "" {
		logger.Warn("entry submit validation failed",
			"event", "contest_entry_submit_validation_failed",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"owner_key", ownerKey,
		)
		return SubmitEntryResult{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return SubmitEntryResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashSubmitEntryCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return SubmitEntryResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return SubmitEntryResult{}, domainerrors.ErrIdempotencyConflict
		}
		entry, err := uc.Entries.GetEntry(ctx, record.ResultID)
		if err != nil {
			return SubmitEntryResult{}, err
		}
		logger.Info("entry submit replayed",
			"event", "contest_entry_submit_replayed",
			"module", "live-events/contest-engine",
			"layer", "application",
			"contest_id", contestID,
			"entry_id", entry.EntryID,
		)
		return SubmitEntryResult{Entry: entry, Replayed: true}, nil
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return SubmitEntryResult{}, err
	}
	// Windows are checked against wall clock read at call time, not cached.
	if !contest.SubmissionWindowOpen(now) {
		return SubmitEntryResult{}, domainerrors.ErrWindowClosed
	}

	category := strings.TrimSpace(cmd.Category)
	if _, found, err := uc.Entries.GetActiveEntry(ctx, contestID, ownerKey, category); err != nil {
		return SubmitEntryResult{}, err
	} else if found {
		// The caller must withdraw explicitly; overwriting would lose the
		// audit trail.
		return SubmitEntryResult{}, domainerrors.ErrDuplicateEntry
	}

	entryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitEntryResult{}, err
	}
	entry := entities.Entry{
		EntryID:     entryID,
		ContestID:   contestID,
		OwnerKey:    ownerKey,
		Category:    category,
		Title:       strings.TrimSpace(cmd.Title),
		SubmittedBy: submittedBy,
		SubmittedAt: now,
		Status:      entities.EntryStatusPending,
		UpdatedAt:   now,
	}
	if err := uc.Entries.SaveEntry(ctx, entry); err != nil {
		return SubmitEntryResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SubmitEntryResult{}, err
		}
		envelope, err := newContestEnvelope(eventID, "entry.submitted", contestID, now, map[string]any{
			"contest_id":   contestID,
			"entry_id":     entry.EntryID,
			"owner_key":    entry.OwnerKey,
			"category":     entry.Category,
			"submitted_by": entry.SubmittedBy,
		})
		if err != nil {
			return SubmitEntryResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return SubmitEntryResult{}, err
		}
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		ResultID:    entry.EntryID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return SubmitEntryResult{}, err
	}

	logger.Info("entry submitted",
		"event", "contest_entry_submitted",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"entry_id", entry.EntryID,
		"owner_key", entry.OwnerKey,
		"category", entry.Category,
	)
	return SubmitEntryResult{Entry: entry}, nil
}

// WithdrawEntry marks an actor-owned pending entry withdrawn while the
// submission window is still open.
func (uc EntryUseCase) WithdrawEntry(ctx context.Context, cmd WithdrawEntryCommand) (entities.Entry, error) {
	logger := application.ResolveLogger(uc.Logger)

	contestID := strings.TrimSpace(cmd.ContestID)
	entryID := strings.TrimSpace(cmd.EntryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if contestID == "" || entryID == "" || actorID == "" {
		return entities.Entry{}, domainerrors.ErrInvalidInput
	}

	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return entities.Entry{}, err
	}
	if contest.Phase != entities.PhaseSubmissionsOpen {
		return entities.Entry{}, domainerrors.ErrWindowClosed
	}

	entry, err := uc.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return entities.Entry{}, err
	}
	if entry.ContestID != contestID {
		return entities.Entry{}, domainerrors.ErrEntryNotFound
	}
	if !strings.EqualFold(entry.SubmittedBy, actorID) {
		return entities.Entry{}, domainerrors.ErrNotEntryOwner
	}
	if entry.Status != entities.EntryStatusPending {
		return entities.Entry{}, domainerrors.ErrConflict
	}

	now := uc.now()
	entry.Status = entities.EntryStatusWithdrawn
	entry.UpdatedAt = now
	if err := uc.Entries.SaveEntry(ctx, entry); err != nil {
		return entities.Entry{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Entry{}, err
		}
		envelope, err := newContestEnvelope(eventID, "entry.withdrawn", contestID, now, map[string]any{
			"contest_id": contestID,
			"entry_id":   entry.EntryID,
			"owner_key":  entry.OwnerKey,
			"actor_id":   actorID,
		})
		if err != nil {
			return entities.Entry{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.Entry{}, err
		}
	}

	logger.Info("entry withdrawn",
		"event", "contest_entry_withdrawn",
		"module", "live-events/contest-engine",
		"layer", "application",
		"contest_id", contestID,
		"entry_id", entry.EntryID,
	)
	return entry, nil
}

func (uc EntryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc EntryUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashSubmitEntryCommand(cmd SubmitEntryCommand) string {
	payload := map[string]string{
		"contest_id":   strings.TrimSpace(cmd.ContestID),
		"owner_key":    strings.TrimSpace(cmd.OwnerKey),
		"category":     strings.TrimSpace(cmd.Category),
		"title":        strings.TrimSpace(cmd.Title),
		"submitted_by": strings.TrimSpace(cmd.SubmittedBy),
		"op":           "submit_entry",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
