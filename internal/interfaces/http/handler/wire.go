package handler

import (
	"github.com/google/wire"

	appcleaner "github.com/oneilstokeseqrm/ingestion-gateway/internal/application/cleaner"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/pipeline"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
)

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewTextHandler,
	NewBatchHandler,
	NewUploadHandler,
	NewListenHandler,
	NewDemoHandler,
	wire.Bind(new(Cleaner), new(*appcleaner.Service)),
	wire.Bind(new(Transcriber), new(*transcription.Client)),
	wire.Bind(new(Orchestrator), new(*pipeline.Orchestrator)),
	wire.Bind(new(UploadService), new(*upload.Service)),
)
