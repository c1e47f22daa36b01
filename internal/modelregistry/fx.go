package modelregistry

import "go.uber.org/fx"

var Module = fx.Module("modelregistry",
	fx.Provide(NewHolder),
	fx.Provide(func(h *Holder) Registry { return h }),
)
