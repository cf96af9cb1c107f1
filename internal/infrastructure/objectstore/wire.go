package objectstore

import "github.com/google/wire"

// ProviderSet 对象存储 ProviderSet
var ProviderSet = wire.NewSet(
	NewStore,
)
