package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// ErrPersonaUnknown persona code 在 personas 表中不存在
var ErrPersonaUnknown = errors.New("persona not found")

// IntelligenceRepository 智能抽取结果仓储接口
// 本服务中只有 intelligence 应用服务写这两张表
type IntelligenceRepository interface {
	// PersonaIDByCode 按 code 查 persona UUID
	PersonaIDByCode(ctx context.Context, code string) (uuid.UUID, error)

	// PersistAnalysis 在单个事务中落库：persona 查找、五行摘要、全部洞察。
	// 任意一步失败则整体回滚，不留下任何行
	PersistAnalysis(ctx context.Context, analysis *intelligence.Analysis, personaCode string, meta intelligence.Meta) error
}

// intelligenceRepository Postgres 仓储实现
type intelligenceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewIntelligenceRepository 创建智能结果仓储实例
func NewIntelligenceRepository(db *sql.DB) IntelligenceRepository {
	return &intelligenceRepository{
		db:     db,
		logger: applog.NewModuleLogger("storage", "intelligence"),
	}
}

// PersonaIDByCode 按 code 查 persona
func (r *intelligenceRepository) PersonaIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	return personaIDByCode(ctx, r.db, code)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func personaIDByCode(ctx context.Context, q queryRower, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRowContext(ctx, `SELECT id FROM personas WHERE code = $1`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrPersonaUnknown, code)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up persona: %w", err)
	}
	return id, nil
}

// PersistAnalysis 单事务落库
func (r *intelligenceRepository) PersistAnalysis(ctx context.Context, analysis *intelligence.Analysis, personaCode string, meta intelligence.Meta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	personaID, err := personaIDByCode(ctx, tx, personaCode)
	if err != nil {
		return err
	}
	meta.PersonaID = personaID

	summaries, insights, err := intelligence.Decompose(analysis, meta)
	if err != nil {
		return fmt.Errorf("failed to decompose analysis: %w", err)
	}

	now := time.Now().UTC()

	insertSummarySQL := `
	INSERT INTO interaction_summary_entries (
		id, tenant_id, interaction_id, persona_id, level, text, word_count,
		profile_type, source, trace_id, interaction_type, account_id,
		interaction_timestamp, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`

	for _, s := range summaries {
		if _, err := tx.ExecContext(ctx, insertSummarySQL,
			s.ID, s.TenantID, s.InteractionID, s.PersonaID, s.Level, s.Text, s.WordCount,
			s.ProfileType, s.Source, s.TraceID, s.InteractionType, s.AccountID,
			s.InteractionTimestamp, now,
		); err != nil {
			return fmt.Errorf("failed to insert summary entry (%s): %w", s.Level, err)
		}
	}

	insertInsightSQL := `
	INSERT INTO interaction_insights (
		id, tenant_id, interaction_id, persona_id, type,
		description, owner, due_date, text, decision, rationale, risk, severity, mitigation,
		content_hash, trace_id, interaction_type, account_id,
		interaction_timestamp, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)`

	for _, ins := range insights {
		if _, err := tx.ExecContext(ctx, insertInsightSQL,
			ins.ID, ins.TenantID, ins.InteractionID, ins.PersonaID, ins.Type,
			ins.Description, ins.Owner, ins.DueDate, ins.Text, ins.Decision, ins.Rationale,
			ins.Risk, ins.Severity, ins.Mitigation,
			ins.ContentHash, ins.TraceID, ins.InteractionType, ins.AccountID,
			ins.InteractionTimestamp, now,
		); err != nil {
			return fmt.Errorf("failed to insert insight (%s): %w", ins.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit intelligence transaction: %w", err)
	}

	r.logger.Info("Persisted intelligence",
		"interaction_id", meta.InteractionID.String(),
		"summaries", len(summaries),
		"insights", len(insights),
	)
	return nil
}
