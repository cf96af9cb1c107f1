package sessionbuffer

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
)

// TestKeyFormat 缓冲键固定为 session:<session_id>:transcript
func TestKeyFormat(t *testing.T) {
	sessionID := uuid.New()
	assert.Equal(t, fmt.Sprintf("session:%s:transcript", sessionID), Key(sessionID))
}

// TestNewStoreParsesURL 合法 URL 可建店，非法 URL 报错
func TestNewStoreParsesURL(t *testing.T) {
	store, err := NewStore(&config.SessionBufferConfig{
		URL: "redis://localhost:6379",
		TTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Equal(t, 24*time.Hour, store.ttl)

	_, err = NewStore(&config.SessionBufferConfig{URL: "://bad"})
	assert.Error(t, err)
}
