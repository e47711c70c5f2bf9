package errors

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid contest input")
	ErrContestNotFound        = errors.New("contest not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrInvalidTransition      = errors.New("illegal phase transition")
	ErrWindowClosed           = errors.New("submission window is closed")
	ErrPhaseNotOpen           = errors.New("voting is not open")
	ErrDuplicateEntry         = errors.New("active entry already exists for owner and category")
	ErrDuplicateBallot        = errors.New("ballot already cast for this entry")
	ErrVoteLimitReached       = errors.New("vote limit reached for voter")
	ErrSelfVoteForbidden      = errors.New("self voting is forbidden")
	ErrUnknownEntry           = errors.New("entry is not a finalist of this contest")
	ErrNoEligibleEntries      = errors.New("no selected entries eligible for voting")
	ErrNotEntryOwner          = errors.New("entry is owned by another actor")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
	ErrConflict               = errors.New("contest state conflict")
)
