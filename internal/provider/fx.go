package provider

import (
	"github.com/smallbiznis/lpt/internal/config"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	"github.com/smallbiznis/lpt/internal/provider/openrouter"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("provider",
	fx.Provide(func(cfg config.Config, log *zap.Logger) providerdomain.Provider {
		return openrouter.New(cfg.Provider, log)
	}),
)
