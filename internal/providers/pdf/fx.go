package pdf

import "go.uber.org/fx"

var Module = fx.Module("pdf.renderer",
	fx.Provide(NewRenderer),
)
