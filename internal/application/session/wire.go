package session

import (
	"github.com/google/wire"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/pipeline"
)

// ProviderSet 实时会话 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	wire.Bind(new(Orchestrator), new(*pipeline.Orchestrator)),
)
