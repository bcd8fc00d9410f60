package providers

import (
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
