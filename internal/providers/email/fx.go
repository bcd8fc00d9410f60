package email

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromLogger),
)

func NewFromLogger(log *zap.Logger) Provider {
	return NewLogProvider(log)
}
