package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"encore/contexts/live-events/contest-engine/domain/entities"
	domainerrors "encore/contexts/live-events/contest-engine/domain/errors"
	"encore/contexts/live-events/contest-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveContest(ctx context.Context, contest entities.Contest) error {
	row := contestModelFromEntity(contest)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":                row.Title,
			"season":               row.Season,
			"phase":                row.Phase,
			"voting_mode":          row.VotingMode,
			"selection_method":     row.SelectionMethod,
			"finalist_count":       row.FinalistCount,
			"max_votes_per_voter":  row.MaxVotesPerVoter,
			"allow_self_vote":      row.AllowSelfVote,
			"submission_opens_at":  row.SubmissionOpensAt,
			"submission_closes_at": row.SubmissionClosesAt,
			"voting_opens_at":      row.VotingOpensAt,
			"voting_closes_at":     row.VotingClosesAt,
			"version":              row.Version,
			"updated_at":           row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("contest_repo_save_contest_failed", create.Error,
			"contest_id", strings.TrimSpace(contest.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	var row contestModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contest{}, domainerrors.ErrContestNotFound
		}
		return entities.Contest{}, r.logError("contest_repo_get_contest_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListContestsInPhase(ctx context.Context, phase entities.Phase) ([]entities.Contest, error) {
	var rows []contestModel
	if err := r.db.WithContext(ctx).
		Where("phase = ?", string(phase)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_contests_in_phase_failed", err,
			"phase", string(phase),
		)
	}
	items := make([]entities.Contest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) TransitionPhase(
	ctx context.Context,
	contestID string,
	from entities.Phase,
	to entities.Phase,
	version int64,
	updatedAt time.Time,
) (entities.Contest, error) {
	contestID = strings.TrimSpace(contestID)
	result := r.db.WithContext(ctx).
		Model(&contestModel{}).
		Where("id = ?", contestID).
		Where("phase = ?", string(from)).
		Where("version = ?", version).
		Updates(map[string]any{
			"phase":      string(to),
			"version":    version + 1,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return entities.Contest{}, r.logError("contest_repo_transition_phase_failed", result.Error,
			"contest_id", contestID,
			"from", string(from),
			"to", string(to),
		)
	}
	if result.RowsAffected == 0 {
		var row contestModel
		err := r.db.WithContext(ctx).
			Where("id = ?", contestID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entities.Contest{}, domainerrors.ErrContestNotFound
			}
			return entities.Contest{}, r.logError("contest_repo_transition_phase_reload_failed", err,
				"contest_id", contestID,
			)
		}
		return entities.Contest{}, domainerrors.ErrInvalidTransition
	}

	var row contestModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", contestID).
		First(&row).Error; err != nil {
		return entities.Contest{}, r.logError("contest_repo_transition_phase_load_failed", err,
			"contest_id", contestID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveEntry(ctx context.Context, entry entities.Entry) error {
	row := entryModelFromEntity(entry)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"contest_id":       row.ContestID,
			"owner_key":        row.OwnerKey,
			"category":         row.Category,
			"title":            row.Title,
			"submitted_by":     row.SubmittedBy,
			"status":           row.Status,
			"running_order":    row.RunningOrder,
			"selection_method": row.SelectionMethod,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrDuplicateEntry
		}
		return r.logError("contest_repo_save_entry_failed", create.Error,
			"entry_id", strings.TrimSpace(entry.EntryID),
			"contest_id", strings.TrimSpace(entry.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, entryID string) (entities.Entry, error) {
	var row entryModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(entryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entry{}, domainerrors.ErrEntryNotFound
		}
		return entities.Entry{}, r.logError("contest_repo_get_entry_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveEntry(
	ctx context.Context,
	contestID string,
	ownerKey string,
	category string,
) (entities.Entry, bool, error) {
	var row entryModel
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("LOWER(owner_key) = LOWER(?)", strings.TrimSpace(ownerKey)).
		Where("LOWER(category) = LOWER(?)", strings.TrimSpace(category)).
		Where("status IN ?", []string{
			string(entities.EntryStatusPending),
			string(entities.EntryStatusSelected),
		}).
		Order("submitted_at ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entry{}, false, nil
		}
		return entities.Entry{}, false, r.logError("contest_repo_get_active_entry_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"owner_key", strings.TrimSpace(ownerKey),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error) {
	var rows []entryModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("submitted_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_entries_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return toEntryEntities(rows), nil
}

func (r *Repository) ListEntriesByStatus(
	ctx context.Context,
	contestID string,
	status entities.EntryStatus,
) ([]entities.Entry, error) {
	var rows []entryModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("status = ?", string(status)).
		Order("submitted_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_entries_by_status_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"status", string(status),
		)
	}
	return toEntryEntities(rows), nil
}

func (r *Repository) PromoteEntries(
	ctx context.Context,
	contestID string,
	promoted []entities.Entry,
	rejectedIDs []string,
	updatedAt time.Time,
) error {
	contestID = strings.TrimSpace(contestID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range promoted {
			row := entryModelFromEntity(entry)
			// Only rows still pending move; a lost selection race is a no-op.
			if err := tx.Model(&entryModel{}).
				Where("id = ?", row.ID).
				Where("contest_id = ?", contestID).
				Where("status = ?", string(entities.EntryStatusPending)).
				Updates(map[string]any{
					"status":           row.Status,
					"running_order":    row.RunningOrder,
					"selection_method": row.SelectionMethod,
					"updated_at":       row.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}
		if len(rejectedIDs) > 0 {
			if err := tx.Model(&entryModel{}).
				Where("id IN ?", rejectedIDs).
				Where("contest_id = ?", contestID).
				Where("status = ?", string(entities.EntryStatusPending)).
				Updates(map[string]any{
					"status":     string(entities.EntryStatusRejected),
					"updated_at": updatedAt.UTC(),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.logError("contest_repo_promote_entries_failed", err,
			"contest_id", contestID,
			"promoted", len(promoted),
			"rejected", len(rejectedIDs),
		)
	}
	return nil
}

func (r *Repository) InsertBallotCapped(
	ctx context.Context,
	ballot entities.Ballot,
	maxVotesPerVoter int,
	singleVote bool,
) (ports.BallotInsertResult, error) {
	row := ballotModelFromEntity(ballot)
	var result ports.BallotInsertResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent casts by the same voter so the cap check and
		// the insert are one atomic step.
		lockKey := row.ContestID + "/" + row.VoterID
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", lockKey).Error; err != nil {
			return err
		}

		var existing ballotModel
		err := tx.Where("contest_id = ?", row.ContestID).
			Where("voter_id = ?", row.VoterID).
			Where("entry_id = ?", row.EntryID).
			First(&existing).
			Error
		switch {
		case err == nil:
			if singleVote {
				result = ports.BallotInsertResult{Ballot: existing.toEntity()}
				return nil
			}
			return domainerrors.ErrDuplicateBallot
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var count int64
		if err := tx.Model(&ballotModel{}).
			Where("contest_id = ?", row.ContestID).
			Where("voter_id = ?", row.VoterID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(maxVotesPerVoter) {
			return domainerrors.ErrVoteLimitReached
		}

		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateBallot
			}
			return err
		}
		result = ports.BallotInsertResult{Ballot: row.toEntity(), Inserted: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateBallot) || errors.Is(err, domainerrors.ErrVoteLimitReached) {
			return ports.BallotInsertResult{}, err
		}
		return ports.BallotInsertResult{}, r.logError("contest_repo_insert_ballot_failed", err,
			"ballot_id", row.ID,
			"contest_id", row.ContestID,
			"voter_id", row.VoterID,
		)
	}
	return result, nil
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrConflict
		}
		return entities.Ballot{}, r.logError("contest_repo_get_ballot_failed", err,
			"ballot_id", strings.TrimSpace(ballotID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBallotsByContest(ctx context.Context, contestID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("cast_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_ballots_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountBallotsByVoter(ctx context.Context, contestID string, voterID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("contest_repo_count_ballots_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return int(count), nil
}

func (r *Repository) UpsertJuryScore(ctx context.Context, score entities.JuryScore) error {
	row := juryScoreModel{
		ContestID:  strings.TrimSpace(score.ContestID),
		EntryID:    strings.TrimSpace(score.EntryID),
		JuryKey:    strings.TrimSpace(score.JuryKey),
		Points:     score.Points,
		RecordedAt: score.RecordedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "contest_id"},
			{Name: "entry_id"},
			{Name: "jury_key"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"points":      row.Points,
			"recorded_at": row.RecordedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_upsert_jury_score_failed", create.Error,
			"contest_id", row.ContestID,
			"entry_id", row.EntryID,
			"jury_key", row.JuryKey,
		)
	}
	return nil
}

func (r *Repository) ListJuryScoresByContest(ctx context.Context, contestID string) ([]entities.JuryScore, error) {
	var rows []juryScoreModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("entry_id ASC, jury_key ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_jury_scores_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]entities.JuryScore, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.JuryScore{
			ContestID:  row.ContestID,
			EntryID:    row.EntryID,
			JuryKey:    row.JuryKey,
			Points:     row.Points,
			RecordedAt: row.RecordedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) OwnerKeyForActor(ctx context.Context, actorID string) (string, bool, error) {
	var row actorProjectionModel
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		if isUndefinedTable(err) {
			// The identity projection is optional in local development;
			// callers fall back to the submitted_by check alone.
			return "", false, nil
		}
		return "", false, r.logError("contest_repo_owner_key_for_actor_failed", err,
			"actor_id", strings.TrimSpace(actorID),
		)
	}
	if strings.TrimSpace(row.OwnerKey) == "" {
		return "", false, nil
	}
	return row.OwnerKey, true, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("contest_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("contest_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		ResultID:    row.ResultID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		ResultID:    strings.TrimSpace(record.ResultID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("contest_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.ResultID != row.ResultID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("contest_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("contest_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("contest_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "live-events/contest-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("contest repository operation failed", fields...)
	return err
}

type contestModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	Title              string    `gorm:"column:title"`
	Season             string    `gorm:"column:season"`
	Phase              string    `gorm:"column:phase"`
	VotingMode         string    `gorm:"column:voting_mode"`
	SelectionMethod    string    `gorm:"column:selection_method"`
	FinalistCount      int       `gorm:"column:finalist_count"`
	MaxVotesPerVoter   int       `gorm:"column:max_votes_per_voter"`
	AllowSelfVote      bool      `gorm:"column:allow_self_vote"`
	SubmissionOpensAt  time.Time `gorm:"column:submission_opens_at"`
	SubmissionClosesAt time.Time `gorm:"column:submission_closes_at"`
	VotingOpensAt      time.Time `gorm:"column:voting_opens_at"`
	VotingClosesAt     time.Time `gorm:"column:voting_closes_at"`
	Version            int64     `gorm:"column:version"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (contestModel) TableName() string {
	return "contests"
}

func contestModelFromEntity(contest entities.Contest) contestModel {
	row := contestModel{
		ID:                 strings.TrimSpace(contest.ContestID),
		Title:              strings.TrimSpace(contest.Title),
		Season:             strings.TrimSpace(contest.Season),
		Phase:              string(contest.Phase),
		VotingMode:         string(contest.VotingMode),
		SelectionMethod:    string(contest.SelectionMethod),
		FinalistCount:      contest.FinalistCount,
		MaxVotesPerVoter:   contest.MaxVotesPerVoter,
		AllowSelfVote:      contest.AllowSelfVote,
		SubmissionOpensAt:  contest.SubmissionOpensAt.UTC(),
		SubmissionClosesAt: contest.SubmissionClosesAt.UTC(),
		VotingOpensAt:      contest.VotingOpensAt.UTC(),
		VotingClosesAt:     contest.VotingClosesAt.UTC(),
		Version:            contest.Version,
		CreatedAt:          contest.CreatedAt.UTC(),
		UpdatedAt:          contest.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m contestModel) toEntity() entities.Contest {
	return entities.Contest{
		ContestID:          m.ID,
		Title:              m.Title,
		Season:             m.Season,
		Phase:              entities.Phase(m.Phase),
		VotingMode:         entities.VotingMode(m.VotingMode),
		SelectionMethod:    entities.SelectionMethod(m.SelectionMethod),
		FinalistCount:      m.FinalistCount,
		MaxVotesPerVoter:   m.MaxVotesPerVoter,
		AllowSelfVote:      m.AllowSelfVote,
		SubmissionOpensAt:  m.SubmissionOpensAt.UTC(),
		SubmissionClosesAt: m.SubmissionClosesAt.UTC(),
		VotingOpensAt:      m.VotingOpensAt.UTC(),
		VotingClosesAt:     m.VotingClosesAt.UTC(),
		Version:            m.Version,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type entryModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	ContestID       string    `gorm:"column:contest_id"`
	OwnerKey        string    `gorm:"column:owner_key"`
	Category        string    `gorm:"column:category"`
	Title           string    `gorm:"column:title"`
	SubmittedBy     string    `gorm:"column:submitted_by"`
	SubmittedAt     time.Time `gorm:"column:submitted_at"`
	Status          string    `gorm:"column:status"`
	RunningOrder    *int      `gorm:"column:running_order"`
	SelectionMethod string    `gorm:"column:selection_method"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (entryModel) TableName() string {
	return "contest_entries"
}

func entryModelFromEntity(entry entities.Entry) entryModel {
	row := entryModel{
		ID:              strings.TrimSpace(entry.EntryID),
		ContestID:       strings.TrimSpace(entry.ContestID),
		OwnerKey:        strings.TrimSpace(entry.OwnerKey),
		Category:        strings.TrimSpace(entry.Category),
		Title:           strings.TrimSpace(entry.Title),
		SubmittedBy:     strings.TrimSpace(entry.SubmittedBy),
		SubmittedAt:     entry.SubmittedAt.UTC(),
		Status:          string(entry.Status),
		SelectionMethod: string(entry.SelectionMethod),
		UpdatedAt:       entry.UpdatedAt.UTC(),
	}
	if entry.RunningOrder != nil {
		order := *entry.RunningOrder
		row.RunningOrder = &order
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.SubmittedAt
	}
	return row
}

func (m entryModel) toEntity() entities.Entry {
	entry := entities.Entry{
		EntryID:         m.ID,
		ContestID:       m.ContestID,
		OwnerKey:        m.OwnerKey,
		Category:        m.Category,
		Title:           m.Title,
		SubmittedBy:     m.SubmittedBy,
		SubmittedAt:     m.SubmittedAt.UTC(),
		Status:          entities.EntryStatus(m.Status),
		SelectionMethod: entities.SelectionMethod(m.SelectionMethod),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.RunningOrder != nil {
		order := *m.RunningOrder
		entry.RunningOrder = &order
	}
	return entry
}

func toEntryEntities(rows []entryModel) []entities.Entry {
	items := make([]entities.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type ballotModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ContestID string    `gorm:"column:contest_id"`
	VoterID   string    `gorm:"column:voter_id"`
	EntryID   string    `gorm:"column:entry_id"`
	Points    int       `gorm:"column:points"`
	CastAt    time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "contest_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		ID:        strings.TrimSpace(ballot.BallotID),
		ContestID: strings.TrimSpace(ballot.ContestID),
		VoterID:   strings.TrimSpace(ballot.VoterID),
		EntryID:   strings.TrimSpace(ballot.EntryID),
		Points:    ballot.Points,
		CastAt:    ballot.CastAt.UTC(),
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:  m.ID,
		ContestID: m.ContestID,
		VoterID:   m.VoterID,
		EntryID:   m.EntryID,
		Points:    m.Points,
		CastAt:    m.CastAt.UTC(),
	}
}

type juryScoreModel struct {
	ContestID  string    `gorm:"column:contest_id;primaryKey"`
	EntryID    string    `gorm:"column:entry_id;primaryKey"`
	JuryKey    string    `gorm:"column:jury_key;primaryKey"`
	Points     int       `gorm:"column:points"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (juryScoreModel) TableName() string {
	return "contest_jury_scores"
}

type actorProjectionModel struct {
	ActorID  string `gorm:"column:actor_id;primaryKey"`
	OwnerKey string `gorm:"column:owner_key"`
}

func (actorProjectionModel) TableName() string {
	return "contest_actor_owners"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	ResultID    string    `gorm:"column:result_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "contest_engine_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "contest_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.ContestRepository = (*Repository)(nil)
var _ ports.EntryRepository = (*Repository)(nil)
var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.JuryScoreRepository = (*Repository)(nil)
var _ ports.ActorDirectory = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
