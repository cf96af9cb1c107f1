package eventstream

import "github.com/google/wire"

// ProviderSet 事件流 ProviderSet
var ProviderSet = wire.NewSet(
	NewPublisher,
)
