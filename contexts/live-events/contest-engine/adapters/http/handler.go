package httpadapter

import (
	"context"
	"log/slog"

	"encore/contexts/live-events/contest-engine/application/commands"
	"encore/contexts/live-events/contest-engine/application/queries"
	"encore/contexts/live-events/contest-engine/domain/entities"
	httptransport "encore/contexts/live-events/contest-engine/transport/http"
)

type Handler struct {
	Contests commands.ContestUseCase
	Phases   commands.PhaseUseCase
	Entries  commands.EntryUseCase
	Ballots  commands.BallotUseCase
	Jury     commands.JuryUseCase
	Tallies  queries.TallyUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateContestHandler(
	ctx context.Context,
	req httptransport.CreateContestRequest,
) (httptransport.ContestResponse, error) {
	contest, err := h.Contests.CreateContest(ctx, commands.CreateContestCommand{
		Title:              req.Title,
		Season:             req.Season,
		VotingMode:         entities.VotingMode(req.VotingMode),
		SelectionMethod:    entities.SelectionMethod(req.SelectionMethod),
		FinalistCount:      req.FinalistCount,
		MaxVotesPerVoter:   req.MaxVotesPerVoter,
		AllowSelfVote:      req.AllowSelfVote,
		SubmissionOpensAt:  req.SubmissionOpensAt,
		SubmissionClosesAt: req.SubmissionClosesAt,
		VotingOpensAt:      req.VotingOpensAt,
		VotingClosesAt:     req.VotingClosesAt,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) GetContestHandler(ctx context.Context, contestID string) (httptransport.ContestResponse, error) {
	contest, err := h.Tallies.GetContest(ctx, contestID)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) AdvancePhaseHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	req httptransport.AdvancePhaseRequest,
) (httptransport.ContestResponse, error) {
	contest, err := h.Phases.AdvancePhase(ctx, commands.AdvancePhaseCommand{
		ContestID:   contestID,
		TargetPhase: entities.Phase(req.TargetPhase),
		Force:       req.Force,
		ActorID:     actorID,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return mapContest(contest), nil
}

func (h Handler) SubmitEntryHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	idempotencyKey string,
	req httptransport.SubmitEntryRequest,
) (httptransport.EntryResponse, error) {
	submittedBy := req.SubmittedBy
	if submittedBy == "" {
		submittedBy = actorID
	}
	result, err := h.Entries.SubmitEntry(ctx, commands.SubmitEntryCommand{
		ContestID:      contestID,
		OwnerKey:       req.OwnerKey,
		Category:       req.Category,
		Title:          req.Title,
		SubmittedBy:    submittedBy,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.EntryResponse{}, err
	}
	resp := mapEntry(result.Entry)
	resp.Replayed = result.Replayed
	return resp, nil
}

func (h Handler) WithdrawEntryHandler(
	ctx context.Context,
	contestID string,
	entryID string,
	actorID string,
) (httptransport.EntryResponse, error) {
	entry, err := h.Entries.WithdrawEntry(ctx, commands.WithdrawEntryCommand{
		ContestID: contestID,
		EntryID:   entryID,
		ActorID:   actorID,
	})
	if err != nil {
		return httptransport.EntryResponse{}, err
	}
	return mapEntry(entry), nil
}

func (h Handler) SelectFinalistsHandler(ctx context.Context, contestID string) (httptransport.EntryListResponse, error) {
	finalists, err := h.Phases.Selection.SelectFinalists(ctx, contestID)
	if err != nil {
		return httptransport.EntryListResponse{}, err
	}
	return httptransport.EntryListResponse{Items: mapEntries(finalists)}, nil
}

func (h Handler) ListFinalistsHandler(ctx context.Context, contestID string) (httptransport.EntryListResponse, error) {
	finalists, err := h.Tallies.ListFinalists(ctx, contestID)
	if err != nil {
		return httptransport.EntryListResponse{}, err
	}
	return httptransport.EntryListResponse{Items: mapEntries(finalists)}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	contestID string,
	voterID string,
	idempotencyKey string,
	req httptransport.CastVoteRequest,
) (httptransport.BallotResponse, error) {
	result, err := h.Ballots.CastVote(ctx, commands.CastVoteCommand{
		ContestID:      contestID,
		VoterID:        voterID,
		EntryID:        req.EntryID,
		Points:         req.Points,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return httptransport.BallotResponse{
		BallotID:       result.Ballot.BallotID,
		ContestID:      result.Ballot.ContestID,
		VoterID:        result.Ballot.VoterID,
		EntryID:        result.Ballot.EntryID,
		Points:         result.Ballot.Points,
		CastAt:         result.Ballot.CastAt,
		Replayed:       result.Replayed,
		VotesRemaining: result.VotesRemaining,
	}, nil
}

func (h Handler) RecordJuryScoreHandler(
	ctx context.Context,
	contestID string,
	actorID string,
	req httptransport.JuryScoreRequest,
) (httptransport.JuryScoreResponse, error) {
	score, err := h.Jury.RecordJuryScore(ctx, commands.RecordJuryScoreCommand{
		ContestID: contestID,
		EntryID:   req.EntryID,
		JuryKey:   req.JuryKey,
		Points:    req.Points,
		ActorID:   actorID,
	})
	if err != nil {
		return httptransport.JuryScoreResponse{}, err
	}
	return httptransport.JuryScoreResponse{
		ContestID:  score.ContestID,
		EntryID:    score.EntryID,
		JuryKey:    score.JuryKey,
		Points:     score.Points,
		RecordedAt: score.RecordedAt,
	}, nil
}

func (h Handler) TallyHandler(ctx context.Context, contestID string) (httptransport.TallyResponse, error) {
	contest, err := h.Tallies.GetContest(ctx, contestID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	rows, err := h.Tallies.Tally(ctx, contestID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	items := make([]httptransport.TallyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.TallyItem{
			EntryID:     row.EntryID,
			OwnerKey:    row.OwnerKey,
			Category:    row.Category,
			JuryPoints:  row.JuryPoints,
			VoterPoints: row.VoterPoints,
			TotalPoints: row.TotalPoints,
			Placement:   row.Placement,
			IsWinner:    row.IsWinner,
		})
	}
	return httptransport.TallyResponse{
		ContestID: contest.ContestID,
		Phase:     string(contest.Phase),
		Final:     contest.Phase == entities.PhaseResults,
		Items:     items,
	}, nil
}

func mapContest(contest entities.Contest) httptransport.ContestResponse {
	return httptransport.ContestResponse{
		ContestID:          contest.ContestID,
		Title:              contest.Title,
		Season:             contest.Season,
		Phase:              string(contest.Phase),
		VotingMode:         string(contest.VotingMode),
		SelectionMethod:    string(contest.SelectionMethod),
		FinalistCount:      contest.FinalistCount,
		MaxVotesPerVoter:   contest.MaxVotesPerVoter,
		AllowSelfVote:      contest.AllowSelfVote,
		SubmissionOpensAt:  contest.SubmissionOpensAt,
		SubmissionClosesAt: contest.SubmissionClosesAt,
		VotingOpensAt:      contest.VotingOpensAt,
		VotingClosesAt:     contest.VotingClosesAt,
		Version:            contest.Version,
		CreatedAt:          contest.CreatedAt,
		UpdatedAt:          contest.UpdatedAt,
	}
}

func mapEntry(entry entities.Entry) httptransport.EntryResponse {
	resp := httptransport.EntryResponse{
		EntryID:     entry.EntryID,
		ContestID:   entry.ContestID,
		OwnerKey:    entry.OwnerKey,
		Category:    entry.Category,
		Title:       entry.Title,
		SubmittedBy: entry.SubmittedBy,
		SubmittedAt: entry.SubmittedAt,
		Status:      string(entry.Status),
	}
	if entry.RunningOrder != nil {
		order := *entry.RunningOrder
		resp.RunningOrder = &order
	}
	return resp
}

func mapEntries(entries []entities.Entry) []httptransport.EntryResponse {
	items := make([]httptransport.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mapEntry(entry))
	}
	return items
}
