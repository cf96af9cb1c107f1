package application

import (
	"github.com/google/wire"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/cleaner"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/pipeline"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/session"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	cleaner.ProviderSet,
	intelligence.ProviderSet,
	pipeline.ProviderSet,
	upload.ProviderSet,
	session.ProviderSet,
)
