package pipeline

import (
	"github.com/google/wire"

	appintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/application/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/eventstream"
)

// ProviderSet 编排器 ProviderSet
var ProviderSet = wire.NewSet(
	NewOrchestrator,
	wire.Bind(new(Publisher), new(*eventstream.Publisher)),
	wire.Bind(new(Intelligence), new(*appintel.Service)),
)
