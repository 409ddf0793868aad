package accesspolicyservice

import (
	"log/slog"

	httpadapter "bluecarbon/contexts/identity-access/access-policy-service/adapters/http"
	"bluecarbon/contexts/identity-access/access-policy-service/adapters/memory"
	"bluecarbon/contexts/identity-access/access-policy-service/application"
	"bluecarbon/contexts/identity-access/access-policy-service/domain/entities"
	"bluecarbon/contexts/identity-access/access-policy-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(seed []entities.RoleGrant, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
