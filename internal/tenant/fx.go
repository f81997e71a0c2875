package tenant

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/tenant/repository"
	"github.com/ArturasMisevicius/rentcounter/internal/tenant/service"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewEnumerator),
)
