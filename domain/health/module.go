package health

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var Module = fx.Module("health",
	fx.Provide(
		func(pool *pgxpool.Pool) Pinger { return pool },
		NewHandler,
		NewStatsHandler,
	),
	fx.Invoke(RegisterRoutes),
)
