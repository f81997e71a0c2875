package distribution

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/distribution/service"
)

var Module = fx.Module("distribution.service",
	fx.Provide(service.NewService),
)
