package auth

import "github.com/google/wire"

// ProviderSet 身份验证 ProviderSet
var ProviderSet = wire.NewSet(
	NewResolver,
)
