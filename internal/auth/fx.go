package auth

import (
	"github.com/smallbiznis/lpt/internal/auth/repository"
	"github.com/smallbiznis/lpt/internal/auth/service"
	"github.com/smallbiznis/lpt/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	session.Module,
)
