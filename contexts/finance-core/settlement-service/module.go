package settlementservice

import (
	"log/slog"

	httpadapter "bluecarbon/contexts/finance-core/settlement-service/adapters/http"
	"bluecarbon/contexts/finance-core/settlement-service/adapters/memory"
	"bluecarbon/contexts/finance-core/settlement-service/application"
	"bluecarbon/contexts/finance-core/settlement-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

// Dependencies lists every port the module needs. Credits and Distributor
// cross context boundaries and are supplied by the composition root.
type Dependencies struct {
	Listings    ports.ListingRepository
	Credits     ports.CreditMover
	Distributor ports.ProceedsDistributor
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator

	FeeBasisPoints  int64
	PlatformAccount string

	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Listings:        deps.Listings,
		Credits:         deps.Credits,
		Distributor:     deps.Distributor,
		Outbox:          deps.Outbox,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		FeeBasisPoints:  deps.FeeBasisPoints,
		PlatformAccount: deps.PlatformAccount,
		Logger:          deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(
	credits ports.CreditMover,
	distributor ports.ProceedsDistributor,
	feeBasisPoints int64,
	platformAccount string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Listings:        store,
		Credits:         credits,
		Distributor:     distributor,
		Outbox:          store,
		Clock:           store,
		IDGen:           store,
		FeeBasisPoints:  feeBasisPoints,
		PlatformAccount: platformAccount,
		Logger:          logger,
	})
	module.Store = store
	return module
}
