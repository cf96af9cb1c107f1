package transcription

import "github.com/google/wire"

// ProviderSet 转写基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewClient,
)
