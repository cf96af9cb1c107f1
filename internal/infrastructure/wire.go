package infrastructure

import (
	"github.com/google/wire"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/auth"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/eventstream"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/llm"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/objectstore"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/sessionbuffer"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/storage"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	auth.ProviderSet,
	llm.ProviderSet,
	transcription.ProviderSet,
	objectstore.ProviderSet,
	eventstream.ProviderSet,
	sessionbuffer.ProviderSet,
	storage.ProviderSet,
	websocket.ProviderSet,
)
