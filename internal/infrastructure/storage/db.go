package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
)

// OpenDB 打开数据库连接池
// 池按 serverless 宿主调优：连接数小、回收周期短；打开时 Ping 一次，取出连接前不做探活
func OpenDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB wire 提供者：打开连接池并初始化本服务拥有的表
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return db, nil
}

// InitSchema 初始化数据库枚举与表结构
// upload_jobs 归本服务所有；intelligence 相关表镜像外部管理的 schema，
// 仅在本地/开发环境建表兜底
func InitSchema(db *sql.DB) error {
	// 枚举类型（已存在时忽略）
	enumStmts := []string{
		`DO $$ BEGIN
			CREATE TYPE job_status AS ENUM ('queued', 'processing', 'succeeded', 'failed');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			CREATE TYPE job_type AS ENUM ('audio_transcription', 'text_processing');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			CREATE TYPE "SummaryLevel" AS ENUM ('title', 'headline', 'brief', 'detailed', 'spotlight', 'unknown');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			CREATE TYPE "ProfileType" AS ENUM ('rich', 'lite');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			CREATE TYPE "InsightType" AS ENUM ('action_item', 'key_takeaway', 'decision_made', 'risk', 'product_feedback', 'market_intelligence', 'unknown');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			CREATE TYPE "RiskSeverity" AS ENUM ('low', 'medium', 'high', 'unknown');
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	}

	for _, stmt := range enumStmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create enum type: %w", err)
		}
	}

	// 创建 upload_jobs 表（本服务独占）
	createUploadJobsSQL := `
	CREATE TABLE IF NOT EXISTS upload_jobs (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		user_id TEXT NOT NULL,
		pg_user_id TEXT,
		user_name TEXT,
		job_type job_type NOT NULL DEFAULT 'audio_transcription',
		status job_status NOT NULL DEFAULT 'queued',
		file_key TEXT NOT NULL,
		file_name TEXT,
		mime_type TEXT,
		file_size BIGINT,
		interaction_id UUID NOT NULL,
		trace_id TEXT,
		account_id TEXT,
		error_message TEXT,
		error_code TEXT,
		result_summary TEXT,
		metadata_json TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	);`

	if _, err := db.Exec(createUploadJobsSQL); err != nil {
		return fmt.Errorf("failed to create upload_jobs table: %w", err)
	}

	// 创建索引
	createIndexSQL := `
	CREATE UNIQUE INDEX IF NOT EXISTS ix_upload_jobs_tenant_file_key ON upload_jobs(tenant_id, file_key);
	CREATE INDEX IF NOT EXISTS ix_upload_jobs_tenant_id ON upload_jobs(tenant_id);
	CREATE INDEX IF NOT EXISTS ix_upload_jobs_status ON upload_jobs(status);
	CREATE INDEX IF NOT EXISTS ix_upload_jobs_tenant_status ON upload_jobs(tenant_id, status);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create upload_jobs indexes: %w", err)
	}

	// 镜像表：personas / interaction_summary_entries / interaction_insights
	createPersonasSQL := `
	CREATE TABLE IF NOT EXISTS personas (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	if _, err := db.Exec(createPersonasSQL); err != nil {
		return fmt.Errorf("failed to create personas table: %w", err)
	}

	createSummariesSQL := `
	CREATE TABLE IF NOT EXISTS interaction_summary_entries (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		interaction_id UUID NOT NULL,
		persona_id UUID NOT NULL,
		level "SummaryLevel" NOT NULL,
		text TEXT NOT NULL,
		word_count INTEGER,
		profile_type "ProfileType" NOT NULL DEFAULT 'rich',
		source TEXT,
		trace_id UUID NOT NULL,
		interaction_type TEXT NOT NULL,
		account_id UUID,
		interaction_timestamp TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS ix_summary_entries_interaction ON interaction_summary_entries(interaction_id);
	CREATE INDEX IF NOT EXISTS ix_summary_entries_tenant ON interaction_summary_entries(tenant_id);`

	if _, err := db.Exec(createSummariesSQL); err != nil {
		return fmt.Errorf("failed to create interaction_summary_entries table: %w", err)
	}

	createInsightsSQL := `
	CREATE TABLE IF NOT EXISTS interaction_insights (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL,
		interaction_id UUID NOT NULL,
		persona_id UUID NOT NULL,
		type "InsightType" NOT NULL,
		description TEXT,
		owner TEXT,
		due_date TIMESTAMPTZ,
		text TEXT,
		decision TEXT,
		rationale TEXT,
		risk TEXT,
		severity "RiskSeverity",
		mitigation TEXT,
		content_hash TEXT NOT NULL,
		trace_id UUID NOT NULL,
		interaction_type TEXT NOT NULL,
		account_id UUID,
		interaction_timestamp TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS ix_insights_interaction ON interaction_insights(interaction_id);
	CREATE INDEX IF NOT EXISTS ix_insights_tenant ON interaction_insights(tenant_id);`

	if _, err := db.Exec(createInsightsSQL); err != nil {
		return fmt.Errorf("failed to create interaction_insights table: %w", err)
	}

	return nil
}
