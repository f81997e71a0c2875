package invoice

import (
	"go.uber.org/fx"

	"github.com/ArturasMisevicius/rentcounter/internal/invoice/repository"
)

var Module = fx.Module("invoice.repository",
	fx.Provide(repository.NewStore),
	fx.Provide(repository.NewLedger),
)
