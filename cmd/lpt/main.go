package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/internal/auth"
	"github.com/smallbiznis/lpt/internal/chat"
	"github.com/smallbiznis/lpt/internal/clock"
	"github.com/smallbiznis/lpt/internal/completion"
	"github.com/smallbiznis/lpt/internal/config"
	"github.com/smallbiznis/lpt/internal/migration"
	"github.com/smallbiznis/lpt/internal/modelregistry"
	"github.com/smallbiznis/lpt/internal/observability"
	"github.com/smallbiznis/lpt/internal/provider"
	"github.com/smallbiznis/lpt/internal/quota"
	"github.com/smallbiznis/lpt/internal/ratelimit"
	"github.com/smallbiznis/lpt/internal/server"
	"github.com/smallbiznis/lpt/internal/usage"
	"github.com/smallbiznis/lpt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Domains
		auth.Module,
		usage.Module,
		quota.Module,
		modelregistry.Module,
		provider.Module,
		completion.Module,
		chat.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
