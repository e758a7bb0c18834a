package proposalledger

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/governance/proposal-ledger/adapters/http"
	"agora/contexts/governance/proposal-ledger/adapters/memory"
	"agora/contexts/governance/proposal-ledger/application/commands"
	"agora/contexts/governance/proposal-ledger/application/queries"
	"agora/contexts/governance/proposal-ledger/application/workers"
	"agora/contexts/governance/proposal-ledger/domain/services"
	"agora/contexts/governance/proposal-ledger/ports"
)

const DefaultMinVotingWindow = services.DefaultMinVotingWindow

type Module struct {
	Handler   httpadapter.Handler
	Replay    commands.ReplayUseCase
	Relay     workers.OutboxRelay
	Projector workers.ResultsProjector
	Store     *memory.Store
}

type Dependencies struct {
	Ledger          ports.LedgerStore
	Journal         ports.EventJournal
	Outbox          ports.OutboxRepository
	Publisher       ports.EventPublisher
	Subscriber      ports.EventSubscriber
	Dedup           ports.EventDedupStore
	Archive         ports.ResultsArchive
	Access          ports.AccessGate
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	MinVotingWindow time.Duration
	OutboxBatchSize int
	Observer        ports.OperationObserver
	RelayObserver   workers.RelayObserver
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	window := deps.MinVotingWindow
	if window <= 0 {
		window = DefaultMinVotingWindow
	}
	ledgerUseCase := commands.LedgerUseCase{
		Ledger:          deps.Ledger,
		Journal:         deps.Journal,
		Access:          deps.Access,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		MinVotingWindow: window,
		Observer:        deps.Observer,
		Logger:          deps.Logger,
	}
	proposalQueries := queries.ProposalQueries{
		Ledger:    deps.Ledger,
		Refresher: ledgerUseCase,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger:  ledgerUseCase,
			Queries: proposalQueries,
			Logger:  deps.Logger,
		},
		Replay: commands.ReplayUseCase{
			Ledger:  deps.Ledger,
			Journal: deps.Journal,
			Logger:  deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Observer:  deps.RelayObserver,
			Logger:    deps.Logger,
		},
		Projector: workers.ResultsProjector{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Archive:    deps.Archive,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule keeps the ledger, journal and results archive in one
// process-local store.
func NewInMemoryModule(access ports.AccessGate, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:  store,
		Journal: store,
		Outbox:  store,
		Dedup:   store,
		Archive: store,
		Access:  access,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
