package components

import (
	"context"

	"rideyard/internal/handler"
	"rideyard/internal/handler/api"
	"rideyard/internal/handler/middleware"
	"rideyard/internal/handler/ws"
	"rideyard/internal/infra/listener"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewBikeHandler,
		api.NewBookingHandler,
		ws.NewHub,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(
		handler.NewRouter,
		startChangeFeed,
	),
)

// startChangeFeed wires the Postgres notification stream into the
// websocket hub for the process lifetime.
func startChangeFeed(lc fx.Lifecycle, pool *pgxpool.Pool, hub *ws.Hub) {
	feedCtx, cancel := context.WithCancel(context.Background())
	l := listener.New(pool, hub)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go l.Run(feedCtx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			hub.Close()
			return nil
		},
	})
}
