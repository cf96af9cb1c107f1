package sessionbuffer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// opTimeout 单次远程操作超时
const opTimeout = 5 * time.Second

// Key 会话缓冲键：session:<session_id>:transcript
func Key(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:transcript", sessionID)
}

// Store 按会话有序追加的远程缓冲
// 块按插入顺序读回；TTL 在首写时设置并在每次追加时刷新
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore 创建会话缓冲存储
func NewStore(cfg *config.SessionBufferConfig) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session buffer URL: %w", err)
	}

	return &Store{
		client: redis.NewClient(opts),
		ttl:    cfg.TTL,
		logger: applog.NewModuleLogger("sessionbuffer", "store"),
	}, nil
}

// Append 追加一个转写块并刷新 TTL
func (s *Store) Append(ctx context.Context, sessionID uuid.UUID, chunk string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := Key(sessionID)
	if err := s.client.RPush(ctx, key, chunk).Err(); err != nil {
		return fmt.Errorf("failed to append session chunk: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session buffer TTL: %w", err)
	}
	return nil
}

// Range 按插入顺序读出全部块
func (s *Store) Range(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	chunks, err := s.client.LRange(ctx, Key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session chunks: %w", err)
	}
	return chunks, nil
}

// Delete 删除会话缓冲键
func (s *Store) Delete(ctx context.Context, sessionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session buffer: %w", err)
	}
	return nil
}

// FinalTranscript 重建完整转写：按插入顺序以单空格连接
// 读取成功后删除缓冲键；删除失败只告警，键会随 TTL 过期
func (s *Store) FinalTranscript(ctx context.Context, sessionID uuid.UUID) (string, error) {
	chunks, err := s.Range(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := s.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete session buffer after read",
			"session_id", sessionID.String(),
			"error", err,
		)
	}

	return strings.Join(chunks, " "), nil
}
