package graphs

import (
	"go.uber.org/fx"
)

// Module provides the graphs domain: CRUD for graphs and their entities,
// and diagram code synchronization
var Module = fx.Module("graphs",
	fx.Provide(NewRepository),
	fx.Provide(
		fx.Annotate(
			NewSyncStore,
			fx.As(new(SyncStore)),
		),
	),
	fx.Provide(NewSynchronizer),
	fx.Provide(NewService),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
