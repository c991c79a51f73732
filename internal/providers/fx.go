package providers

import (
	"github.com/smallbiznis/narzo/internal/providers/email"
	"github.com/smallbiznis/narzo/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
