package accessgate

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/identity-access/access-gate/adapters/http"
	"agora/contexts/identity-access/access-gate/adapters/memory"
	"agora/contexts/identity-access/access-gate/application/commands"
	"agora/contexts/identity-access/access-gate/application/queries"
	"agora/contexts/identity-access/access-gate/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository         ports.Repository
	PermissionCache    ports.PermissionCache
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	permissions := queries.CheckPermissionUseCase{
		Repository:         deps.Repository,
		PermissionCache:    deps.PermissionCache,
		Clock:              deps.Clock,
		PermissionCacheTTL: deps.PermissionCacheTTL,
		Logger:             deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			GrantRole: commands.GrantRoleUseCase{
				Repository:      deps.Repository,
				PermissionCache: deps.PermissionCache,
				Clock:           deps.Clock,
				IDGenerator:     deps.IDGen,
				Logger:          deps.Logger,
			},
			RevokeRole: commands.RevokeRoleUseCase{
				Repository:      deps.Repository,
				PermissionCache: deps.PermissionCache,
				Clock:           deps.Clock,
				Logger:          deps.Logger,
			},
			Voters: commands.VoterUseCase{
				Repository: deps.Repository,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Permissions: permissions,
			Capabilities: queries.CapabilityQueries{
				Permissions: permissions,
				Repository:  deps.Repository,
				Logger:      deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:         store,
		PermissionCache:    store,
		Clock:              store,
		IDGen:              store,
		PermissionCacheTTL: 5 * time.Minute,
		Logger:             logger,
	})
	module.Store = store
	return module
}
