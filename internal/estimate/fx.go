package estimate

import (
	"github.com/smallbiznis/invoicely/internal/estimate/repository"
	"github.com/smallbiznis/invoicely/internal/estimate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("estimate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
