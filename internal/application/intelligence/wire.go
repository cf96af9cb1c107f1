package intelligence

import (
	"github.com/google/wire"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/llm"
)

// ProviderSet 智能抽取 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	wire.Bind(new(StructuredLLM), new(*llm.Client)),
)
