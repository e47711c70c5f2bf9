package contestengine

import (
	"log/slog"
	"time"

	httpadapter "encore/contexts/live-events/contest-engine/adapters/http"
	"encore/contexts/live-events/contest-engine/adapters/memory"
	"encore/contexts/live-events/contest-engine/application/commands"
	"encore/contexts/live-events/contest-engine/application/queries"
	"encore/contexts/live-events/contest-engine/application/workers"
	"encore/contexts/live-events/contest-engine/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	WindowCloser workers.WindowCloser
	Store        *memory.Store
}

type Dependencies struct {
	Contests       ports.ContestRepository
	Entries        ports.EntryRepository
	Ballots        ports.BallotRepository
	Jury           ports.JuryScoreRepository
	Actors         ports.ActorDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	contestUseCase := commands.ContestUseCase{
		Contests: deps.Contests,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	selectionUseCase := commands.SelectionUseCase{
		Contests: deps.Contests,
		Entries:  deps.Entries,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	phaseUseCase := commands.PhaseUseCase{
		Contests:  deps.Contests,
		Entries:   deps.Entries,
		Selection: selectionUseCase,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	entryUseCase := commands.EntryUseCase{
		Contests:       deps.Contests,
		Entries:        deps.Entries,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	ballotUseCase := commands.BallotUseCase{
		Contests:       deps.Contests,
		Entries:        deps.Entries,
		Ballots:        deps.Ballots,
		Actors:         deps.Actors,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	juryUseCase := commands.JuryUseCase{
		Contests: deps.Contests,
		Entries:  deps.Entries,
		Jury:     deps.Jury,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	tallyUseCase := queries.TallyUseCase{
		Contests: deps.Contests,
		Entries:  deps.Entries,
		Ballots:  deps.Ballots,
		Jury:     deps.Jury,
	}
	return Module{
		Handler: httpadapter.Handler{
			Contests: contestUseCase,
			Phases:   phaseUseCase,
			Entries:  entryUseCase,
			Ballots:  ballotUseCase,
			Jury:     juryUseCase,
			Tallies:  tallyUseCase,
			Logger:   deps.Logger,
		},
		WindowCloser: workers.WindowCloser{
			Contests: deps.Contests,
			Phases:   phaseUseCase,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Contests:       store,
		Entries:        store,
		Ballots:        store,
		Jury:           store,
		Actors:         store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
