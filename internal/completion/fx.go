package completion

import (
	"github.com/smallbiznis/lpt/internal/completion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("completion.service",
	fx.Provide(service.NewService),
)
