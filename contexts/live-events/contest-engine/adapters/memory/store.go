package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type juryKey struct {
	contestID string
	entryID   string
	juryKey   string
}

// Store is the in-memory adapter satisfying every engine port. A single
// mutex makes the capped ballot insert and the phase CAS atomic.
type Store struct {
	mu sync.RWMutex

	contests    map[string]entities.Contest
	entries     map[string]entities.Entry
	ballots     map[string]entities.Ballot
	juryScores  map[juryKey]entities.JuryScore
	actors      map[string]string
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord

	fixedNow time.Time
}

func NewStore() *Store {
	return &Store{
		contests:    make(map[string]entities.Contest),
		entries:     make(map[string]entities.Entry),
		ballots:     make(map[string]entities.Ballot),
		juryScores:  make(map[juryKey]entities.JuryScore),
		actors:      make(map[string]string),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

// SetNow pins the store clock for window tests. Zero restores wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now
}

// SetActorOwnerKey seeds the identity projection used by self-vote checks.
func (s *Store) SetActorOwnerKey(actorID string, ownerKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[strings.TrimSpace(actorID)] = strings.TrimSpace(ownerKey)
}

func (s *Store) SaveContest(_ context.Context, contest entities.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[strings.TrimSpace(contest.ContestID)] = contest
	return nil
}

func (s *Store) GetContest(_ context.Context, contestID string) (entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) ListContestsInPhase(_ context.Context, phase entities.Phase) ([]entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Contest, 0)
	for _, contest := range s.contests {
		if contest.Phase == phase {
			items = append(items, contest)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ContestID < items[j].ContestID
	})
	return items, nil
}

func (s *Store) TransitionPhase(
	_ context.Context,
	contestID string,
	from entities.Phase,
	to entities.Phase,
	version int64,
	updatedAt time.Time,
) (entities.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	if contest.Phase != from || contest.Version != version {
		return entities.Contest{}, domainerrors.ErrInvalidTransition
	}
	contest.Phase = to
	contest.Version++
	contest.UpdatedAt = updatedAt.UTC()
	s.contests[contest.ContestID] = contest
	return contest, nil
}

func (s *Store) SaveEntry(_ context.Context, entry entities.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.TrimSpace(entry.EntryID)] = entry
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID string) (entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[strings.TrimSpace(entryID)]
	if !ok {
		return entities.Entry{}, domainerrors.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) GetActiveEntry(
	_ context.Context,
	contestID string,
	ownerKey string,
	category string,
) (entities.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contestID = strings.TrimSpace(contestID)
	ownerKey = strings.TrimSpace(ownerKey)
	category = strings.TrimSpace(category)
	for _, entry := range s.entries {
		if entry.ContestID != contestID || !entry.Active() {
			continue
		}
		if strings.EqualFold(entry.OwnerKey, ownerKey) && strings.EqualFold(entry.Category, category) {
			return entry, true, nil
		}
	}
	return entities.Entry{}, false, nil
}

func (s *Store) ListEntriesByContest(_ context.Context, contestID string) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Entry, 0)
	for _, entry := range s.entries {
		if entry.ContestID == strings.TrimSpace(contestID) {
			items = append(items, entry)
		}
	}
	sortEntriesBySubmission(items)
	return items, nil
}

func (s *Store) ListEntriesByStatus(
	_ context.Context,
	contestID string,
	status entities.EntryStatus,
) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Entry, 0)
	for _, entry := range s.entries {
		if entry.ContestID == strings.TrimSpace(contestID) && entry.Status == status {
			items = append(items, entry)
		}
	}
	sortEntriesBySubmission(items)
	return items, nil
}

func (s *Store) PromoteEntries(
	_ context.Context,
	contestID string,
	promoted []entities.Entry,
	rejectedIDs []string,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contestID = strings.TrimSpace(contestID)
	for _, entry := range promoted {
		current, ok := s.entries[entry.EntryID]
		if !ok || current.ContestID != contestID || current.Status != entities.EntryStatusPending {
			continue
		}
		s.entries[entry.EntryID] = entry
	}
	for _, entryID := range rejectedIDs {
		current, ok := s.entries[entryID]
		if !ok || current.ContestID != contestID || current.Status != entities.EntryStatusPending {
			continue
		}
		current.Status = entities.EntryStatusRejected
		current.UpdatedAt = updatedAt.UTC()
		s.entries[entryID] = current
	}
	return nil
}

func (s *Store) InsertBallotCapped(
	_ context.Context,
	ballot entities.Ballot,
	maxVotesPerVoter int,
	singleVote bool,
) (ports.BallotInsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, existing := range s.ballots {
		if existing.ContestID != ballot.ContestID || existing.VoterID != ballot.VoterID {
			continue
		}
		if existing.EntryID == ballot.EntryID {
			if singleVote {
				return ports.BallotInsertResult{Ballot: existing}, nil
			}
			return ports.BallotInsertResult{}, domainerrors.ErrDuplicateBallot
		}
		count++
	}
	if count >= maxVotesPerVoter {
		return ports.BallotInsertResult{}, domainerrors.ErrVoteLimitReached
	}
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
	return ports.BallotInsertResult{Ballot: ballot, Inserted: true}, nil
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrConflict
	}
	return ballot, nil
}

func (s *Store) ListBallotsByContest(_ context.Context, contestID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0)
	for _, ballot := range s.ballots {
		if ballot.ContestID == strings.TrimSpace(contestID) {
			items = append(items, ballot)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].CastAt.Before(items[j].CastAt)
		}
		return items[i].BallotID < items[j].BallotID
	})
	return items, nil
}

func (s *Store) CountBallotsByVoter(_ context.Context, contestID string, voterID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ballot := range s.ballots {
		if ballot.ContestID == strings.TrimSpace(contestID) && ballot.VoterID == strings.TrimSpace(voterID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpsertJuryScore(_ context.Context, score entities.JuryScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := juryKey{
		contestID: strings.TrimSpace(score.ContestID),
		entryID:   strings.TrimSpace(score.EntryID),
		juryKey:   strings.TrimSpace(score.JuryKey),
	}
	s.juryScores[key] = score
	return nil
}

func (s *Store) ListJuryScoresByContest(_ context.Context, contestID string) ([]entities.JuryScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.JuryScore, 0)
	for _, score := range s.juryScores {
		if score.ContestID == strings.TrimSpace(contestID) {
			items = append(items, score)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].EntryID != items[j].EntryID {
			return items[i].EntryID < items[j].EntryID
		}
		return items[i].JuryKey < items[j].JuryKey
	})
	return items, nil
}

func (s *Store) OwnerKeyForActor(_ context.Context, actorID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ownerKey, ok := s.actors[strings.TrimSpace(actorID)]
	if !ok || ownerKey == "" {
		return "", false, nil
	}
	return ownerKey, true, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	existing, exists := s.idempotency[key]
	if exists {
		if existing.RequestHash != record.RequestHash || existing.ResultID != record.ResultID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		ResultID:    strings.TrimSpace(record.ResultID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].OutboxID < items[j].OutboxID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fixedNow.IsZero() {
		return s.fixedNow
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortEntriesBySubmission(items []entities.Entry) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].SubmittedAt.Before(items[j].SubmittedAt)
		}
		return items[i].EntryID < items[j].EntryID
	})
}

var _ ports.ContestRepository = (*Store)(nil)
var _ ports.EntryRepository = (*Store)(nil)
var _ ports.BallotRepository = (*Store)(nil)
var _ ports.JuryScoreRepository = (*Store)(nil)
var _ ports.ActorDirectory = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
