package chat

import (
	"github.com/smallbiznis/lpt/internal/chat/repository"
	"github.com/smallbiznis/lpt/internal/chat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("chat.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
