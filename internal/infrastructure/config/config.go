package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	AWS           AWSConfig           `yaml:"aws"`
	Upload        UploadConfig        `yaml:"upload"`
	Events        EventsConfig        `yaml:"events"`
	LLM           LLMConfig           `yaml:"llm"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Database      DatabaseConfig      `yaml:"database"`
	SessionBuffer SessionBufferConfig `yaml:"session_buffer"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
}

// AuthConfig 身份验证配置
type AuthConfig struct {
	// JWTSecret HMAC-SHA256 共享密钥，至少 32 字符
	JWTSecret string `yaml:"jwt_secret"`
	// JWTIssuer 预期的签发方
	JWTIssuer string `yaml:"jwt_issuer"`
	// JWTAudience 预期的受众
	JWTAudience string `yaml:"jwt_audience"`

	// AllowLegacyHeaderAuth 启用 X-Tenant-ID / X-User-ID 头模式（生产关闭）
	AllowLegacyHeaderAuth bool `yaml:"allow_legacy_header_auth"`
	// MockTenantID 仅开发环境：头缺失时的租户回退值
	MockTenantID string `yaml:"mock_tenant_id"`
	// MockUserID 仅开发环境：头缺失时的用户回退值
	MockUserID string `yaml:"mock_user_id"`
}

// AWSConfig AWS 区域与凭证
// 凭证留空时由运行时的角色凭证链提供
type AWSConfig struct {
	Region string `yaml:"region"`
}

// UploadConfig 对象存储与上传任务配置
type UploadConfig struct {
	BucketName string `yaml:"bucket_name"`
	Region     string `yaml:"region"`

	// PutURLTTL 预签名 PUT URL 有效期
	PutURLTTL time.Duration `yaml:"put_url_ttl"`
	// GetURLTTL 预签名 GET URL 有效期（转写方拉取用）
	GetURLTTL time.Duration `yaml:"get_url_ttl"`

	// MaxFileSize 同步上传的字节上限
	MaxFileSize int64 `yaml:"max_file_size"`

	// StuckJobMaxAge processing 状态超过该时长视为卡死，启动时回收
	StuckJobMaxAge time.Duration `yaml:"stuck_job_max_age"`
}

// EventsConfig 事件流与事件总线配置
type EventsConfig struct {
	KinesisStream      string `yaml:"kinesis_stream"`
	EventBusName       string `yaml:"event_bus_name"`
	EventSource        string `yaml:"event_source"`
	KinesisEnabled     bool   `yaml:"kinesis_enabled"`
	EventBridgeEnabled bool   `yaml:"eventbridge_enabled"`
}

// LLMConfig LLM 供应商配置
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// TranscriptionConfig 转写供应商配置
type TranscriptionConfig struct {
	APIKey string `yaml:"api_key"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// URL Postgres DSN，必填
	URL string `yaml:"url"`
}

// SessionBufferConfig 会话缓冲存储（Redis 语义）配置
type SessionBufferConfig struct {
	URL string `yaml:"url"`
	// TTL 缓冲键的存活上限
	TTL time.Duration `yaml:"ttl"`
}

// NewConfig 创建配置：环境变量为准，可选 YAML 文件（CONFIG_FILE）补充默认
func NewConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort: getEnv("HTTP_PORT", ":8000"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("INTERNAL_JWT_SECRET"),
			JWTIssuer:             getEnv("INTERNAL_JWT_ISSUER", "eq-frontend"),
			JWTAudience:           getEnv("INTERNAL_JWT_AUDIENCE", "eq-backend"),
			AllowLegacyHeaderAuth: getBool("ALLOW_LEGACY_HEADER_AUTH", false),
			MockTenantID:          os.Getenv("MOCK_TENANT_ID"),
			MockUserID:            os.Getenv("MOCK_USER_ID"),
		},
		AWS: AWSConfig{
			Region: getEnv("AWS_REGION", "us-east-1"),
		},
		Upload: UploadConfig{
			BucketName:     getEnv("UPLOAD_BUCKET_NAME", "eq-live-transcription-uploads-dev"),
			Region:         getEnv("UPLOAD_REGION", getEnv("AWS_REGION", "us-east-1")),
			PutURLTTL:      getDuration("UPLOAD_PUT_URL_TTL", 5*time.Minute),
			GetURLTTL:      getDuration("UPLOAD_GET_URL_TTL", time.Hour),
			MaxFileSize:    getInt64("UPLOAD_MAX_FILE_SIZE", 100*1024*1024),
			StuckJobMaxAge: getDuration("UPLOAD_STUCK_JOB_MAX_AGE", 30*time.Minute),
		},
		Events: EventsConfig{
			KinesisStream:      getEnv("KINESIS_STREAM_NAME", "eq-interactions-stream-dev"),
			EventBusName:       getEnv("EVENTBRIDGE_BUS_NAME", "default"),
			EventSource:        getEnv("EVENT_SOURCE", "com.yourapp.transcription"),
			KinesisEnabled:     getBool("ENABLE_KINESIS_PUBLISHING", true),
			EventBridgeEnabled: getBool("ENABLE_EVENTBRIDGE_PUBLISHING", true),
		},
		LLM: LLMConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("LLM_MODEL", "gpt-4o"),
		},
		Transcription: TranscriptionConfig{
			APIKey: os.Getenv("DEEPGRAM_API_KEY"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		SessionBuffer: SessionBufferConfig{
			URL: getEnv("SESSION_BUFFER_URL", "redis://localhost:6379"),
			TTL: getDuration("SESSION_BUFFER_TTL", 24*time.Hour),
		},
	}

	// YAML 文件只补充环境变量未覆盖的值
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			// 配置文件损坏时保留环境变量配置继续启动
			fmt.Fprintf(os.Stderr, "failed to load config file %s: %v\n", path, err)
		}
	}

	return cfg
}

// mergeFile 读取 YAML 覆盖层；环境变量已设置的字段不被覆盖
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = overlay.Auth.JWTSecret
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = overlay.LLM.APIKey
	}
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = overlay.Transcription.APIKey
	}
	if c.Database.URL == "" {
		c.Database.URL = overlay.Database.URL
	}
	if overlay.Server.HTTPPort != "" && os.Getenv("HTTP_PORT") == "" {
		c.Server.HTTPPort = overlay.Server.HTTPPort
	}
	if overlay.SessionBuffer.URL != "" && os.Getenv("SESSION_BUFFER_URL") == "" {
		c.SessionBuffer.URL = overlay.SessionBuffer.URL
	}
	return nil
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewAuthConfig 创建身份验证配置
func NewAuthConfig(cfg *Config) *AuthConfig {
	return &cfg.Auth
}

// NewAWSConfig 创建 AWS 配置
func NewAWSConfig(cfg *Config) *AWSConfig {
	return &cfg.AWS
}

// NewUploadConfig 创建上传配置
func NewUploadConfig(cfg *Config) *UploadConfig {
	return &cfg.Upload
}

// NewEventsConfig 创建事件配置
func NewEventsConfig(cfg *Config) *EventsConfig {
	return &cfg.Events
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewTranscriptionConfig 创建转写配置
func NewTranscriptionConfig(cfg *Config) *TranscriptionConfig {
	return &cfg.Transcription
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewSessionBufferConfig 创建会话缓冲配置
func NewSessionBufferConfig(cfg *Config) *SessionBufferConfig {
	return &cfg.SessionBuffer
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
