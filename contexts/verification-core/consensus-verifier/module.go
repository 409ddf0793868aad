package consensusverifier

import (
	"log/slog"

	httpadapter "bluecarbon/contexts/verification-core/consensus-verifier/adapters/http"
	"bluecarbon/contexts/verification-core/consensus-verifier/adapters/memory"
	"bluecarbon/contexts/verification-core/consensus-verifier/application/commands"
	"bluecarbon/contexts/verification-core/consensus-verifier/application/queries"
	"bluecarbon/contexts/verification-core/consensus-verifier/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Evidence commands.EvidenceUseCase
	Store    *memory.Store
}

// Dependencies lists every port the module needs. Policy and Issuer cross
// context boundaries and are supplied by the composition root.
type Dependencies struct {
	Submissions ports.SubmissionRepository
	Registry    ports.ClaimRegistry
	Policy      ports.AccessPolicy
	Issuer      ports.CreditIssuer
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	evidence := commands.EvidenceUseCase{
		Submissions: deps.Submissions,
		Registry:    deps.Registry,
		Policy:      deps.Policy,
		Issuer:      deps.Issuer,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Evidence: evidence,
			Status: queries.ConsensusStatusUseCase{
				Submissions: deps.Submissions,
				Registry:    deps.Registry,
			},
			Submissions: queries.ListSubmissionsUseCase{
				Submissions: deps.Submissions,
			},
			Logger: deps.Logger,
		},
		Evidence: evidence,
	}
}

func NewInMemoryModule(policy ports.AccessPolicy, issuer ports.CreditIssuer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Submissions: store,
		Registry:    store,
		Policy:      policy,
		Issuer:      issuer,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
