package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/auth"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCleaner struct{}

func (s *stubCleaner) Clean(ctx context.Context, raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "um ", ""))
}

type recordingOrchestrator struct {
	mu       sync.Mutex
	calls    int
	lastEnv  *envelope.EnvelopeV1
	lastMeta domainintel.Meta
}

func (r *recordingOrchestrator) Run(ctx context.Context, env *envelope.EnvelopeV1, personaCode string, meta domainintel.Meta, cleanedTranscript string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastEnv = env
	r.lastMeta = meta
}

// legacyResolver 测试用：启用遗留头模式的解析器
func legacyResolver() *auth.Resolver {
	return auth.NewResolver(&config.AuthConfig{
		JWTSecret:             "0123456789abcdef0123456789abcdef",
		JWTIssuer:             "eq-frontend",
		JWTAudience:           "eq-backend",
		AllowLegacyHeaderAuth: true,
	})
}

func setupTextRouter(orch *recordingOrchestrator) *gin.Engine {
	router := gin.New()
	h := NewTextHandler(&stubCleaner{}, orch)
	router.POST("/text/clean", middleware.Auth(legacyResolver()), h.Clean)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, tenantID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())
	req.Header.Set("X-User-ID", "test-user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestTextCleanHappyPath 正常路径：返回原文、清洗文与 interaction_id
func TestTextCleanHappyPath(t *testing.T) {
	orch := &recordingOrchestrator{}
	router := setupTextRouter(orch)
	tenantID := uuid.New()

	w := doJSON(t, router, http.MethodPost, "/text/clean",
		gin.H{"text": "  um Hello world  ", "source": "api"}, tenantID)

	require.Equal(t, http.StatusOK, w.Code)

	var resp TextCleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "  um Hello world  ", resp.RawText)
	assert.True(t, strings.HasPrefix(resp.CleanedText, "Hello world"))
	_, err := uuid.Parse(resp.InteractionID)
	assert.NoError(t, err, "interaction_id 应为合法 UUID")

	// 信封：note 类型、调用方 source、tenant 正确
	require.Equal(t, 1, orch.calls)
	assert.Equal(t, envelope.InteractionTypeNote, orch.lastEnv.InteractionType)
	assert.Equal(t, "api", orch.lastEnv.Source)
	assert.Equal(t, tenantID, orch.lastEnv.TenantID)
	assert.Equal(t, envelope.InteractionTypeNote, orch.lastMeta.InteractionType)
}

// TestTextCleanWhitespaceRejected 纯空白文本返回 400 且不进管道
func TestTextCleanWhitespaceRejected(t *testing.T) {
	orch := &recordingOrchestrator{}
	router := setupTextRouter(orch)

	w := doJSON(t, router, http.MethodPost, "/text/clean",
		gin.H{"text": "   \t\n"}, uuid.New())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "whitespace")
	assert.Equal(t, 0, orch.calls, "验证失败不应触发任何车道")
}

// TestTextCleanMissingText 缺少 text 字段返回 400
func TestTextCleanMissingText(t *testing.T) {
	orch := &recordingOrchestrator{}
	router := setupTextRouter(orch)

	w := doJSON(t, router, http.MethodPost, "/text/clean", gin.H{"source": "api"}, uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestTextCleanRequiresAuth 无身份返回 401
func TestTextCleanRequiresAuth(t *testing.T) {
	router := setupTextRouter(&recordingOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/text/clean",
		strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "detail")
}

// TestTextCleanMetadataIntoExtras metadata 浅拷贝进 extras；默认 source 为 api
func TestTextCleanMetadataIntoExtras(t *testing.T) {
	orch := &recordingOrchestrator{}
	router := setupTextRouter(orch)

	w := doJSON(t, router, http.MethodPost, "/text/clean",
		gin.H{"text": "note body", "metadata": gin.H{"origin": "crm"}}, uuid.New())

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, orch.calls)
	assert.Equal(t, "crm", orch.lastEnv.Extras["origin"])
	assert.Equal(t, envelope.SourceAPI, orch.lastEnv.Source)
	// 遗留头模式没有 user_name，extras 中绝不出现空值键
	_, present := orch.lastEnv.Extras["user_name"]
	assert.False(t, present)
}

// TestTextCleanPreservesTraceID 调用方传入的合法 trace_id 进入信封
func TestTextCleanPreservesTraceID(t *testing.T) {
	orch := &recordingOrchestrator{}
	router := setupTextRouter(orch)

	traceID := uuid.New().String()
	data, _ := json.Marshal(gin.H{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/text/clean", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", uuid.New().String())
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-Trace-Id", traceID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, traceID, orch.lastEnv.TraceID)
}
