package upload

import (
	"github.com/google/wire"

	appcleaner "github.com/oneilstokeseqrm/ingestion-gateway/internal/application/cleaner"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/pipeline"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/objectstore"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
)

// ProviderSet 上传任务 ProviderSet
var ProviderSet = wire.NewSet(
	NewWorker,
	NewService,
	wire.Bind(new(ObjectStore), new(*objectstore.Store)),
	wire.Bind(new(Transcriber), new(*transcription.Client)),
	wire.Bind(new(Cleaner), new(*appcleaner.Service)),
	wire.Bind(new(Orchestrator), new(*pipeline.Orchestrator)),
)
