package reading

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/reading/repository"
	"github.com/ArturasMisevicius/rentcounter/internal/reading/service"
)

var Module = fx.Module("reading.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewSource),
)
