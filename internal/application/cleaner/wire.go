package cleaner

import (
	"github.com/google/wire"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/llm"
)

// ProviderSet 清洗服务 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	wire.Bind(new(StructuredLLM), new(*llm.Client)),
)
