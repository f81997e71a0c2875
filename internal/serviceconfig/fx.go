package serviceconfig

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/repository"
	"github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/service"
)

var Module = fx.Module("serviceconfig.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewValidator),
)
