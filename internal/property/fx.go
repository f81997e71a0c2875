package property

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/property/repository"
	"github.com/ArturasMisevicius/rentcounter/internal/property/service"
)

var Module = fx.Module("property.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewSource),
)
