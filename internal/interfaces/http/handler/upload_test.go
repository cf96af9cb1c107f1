package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
)

// stubUploadService 按租户路由行为的上传服务替身
type stubUploadService struct {
	ownerTenant uuid.UUID
	jobID       uuid.UUID
	interaction uuid.UUID
	jobStatus   job.Status
	initErr     error
}

func (s *stubUploadService) Init(ctx context.Context, rc *identity.RequestContext, req upload.InitRequest) (*upload.InitResult, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &upload.InitResult{
		UploadURL: "https://store.example/put",
		FileKey:   "tenant/" + rc.TenantID.String() + "/uploads/" + s.jobID.String() + "/" + req.Filename,
		JobID:     s.jobID,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil
}

func (s *stubUploadService) Complete(ctx context.Context, rc *identity.RequestContext, req upload.CompleteRequest) (*upload.CompleteResult, error) {
	if rc.TenantID != s.ownerTenant {
		return nil, job.ErrNotFound
	}
	if s.jobStatus != job.StatusQueued {
		return nil, job.ErrConflict
	}
	return &upload.CompleteResult{
		JobID:         s.jobID,
		InteractionID: s.interaction,
		Status:        job.StatusQueued,
	}, nil
}

func (s *stubUploadService) Status(ctx context.Context, rc *identity.RequestContext, jobID uuid.UUID) (*job.UploadJob, error) {
	if jobID != s.jobID || rc.TenantID != s.ownerTenant {
		return nil, job.ErrNotFound
	}
	return &job.UploadJob{
		ID:            s.jobID,
		TenantID:      s.ownerTenant,
		Status:        s.jobStatus,
		InteractionID: s.interaction,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func setupUploadRouter(svc UploadService) *gin.Engine {
	router := gin.New()
	h := NewUploadHandler(svc)
	authRequired := middleware.Auth(legacyResolver())
	group := router.Group("/upload", authRequired)
	{
		group.POST("/init", h.Init)
		group.POST("/complete", h.Complete)
		group.GET("/status/:job_id", h.Status)
	}
	return router
}

func newStubService() *stubUploadService {
	return &stubUploadService{
		ownerTenant: uuid.New(),
		jobID:       uuid.New(),
		interaction: uuid.New(),
		jobStatus:   job.StatusQueued,
	}
}

// TestUploadInit init 返回 URL、file_key、job_id 与过期时间
func TestUploadInit(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/upload/init",
		gin.H{"filename": "call.mp3", "mime_type": "audio/mpeg"}, svc.ownerTenant)

	require.Equal(t, http.StatusOK, w.Code)

	var resp UploadInitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.UploadURL)
	assert.Equal(t, svc.jobID.String(), resp.JobID)
	assert.Contains(t, resp.FileKey, "call.mp3")
	assert.False(t, resp.ExpiresAt.IsZero())
}

// TestUploadCompleteQueued complete 返回 queued 状态与 interaction_id
func TestUploadCompleteQueued(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/upload/complete",
		gin.H{"file_key": "tenant/" + svc.ownerTenant.String() + "/uploads/x/call.mp3"}, svc.ownerTenant)

	require.Equal(t, http.StatusOK, w.Code)

	var resp UploadCompleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, svc.interaction.String(), resp.InteractionID)
}

// TestUploadCompleteCrossTenant404 跨租户 complete 得到 404 而非 403
func TestUploadCompleteCrossTenant404(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/upload/complete",
		gin.H{"file_key": "tenant/" + svc.ownerTenant.String() + "/uploads/x/call.mp3"}, uuid.New())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), svc.ownerTenant.String(), "404 不得泄露属主信息")
}

// TestUploadCompleteConflict409 非 queued 状态的 complete 得到 409
func TestUploadCompleteConflict409(t *testing.T) {
	svc := newStubService()
	svc.jobStatus = job.StatusSucceeded
	router := setupUploadRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/upload/complete",
		gin.H{"file_key": "tenant/" + svc.ownerTenant.String() + "/uploads/x/call.mp3"}, svc.ownerTenant)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestUploadCompleteMissingFileKey 缺 file_key 返回 400
func TestUploadCompleteMissingFileKey(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	w := doJSON(t, router, http.MethodPost, "/upload/complete", gin.H{}, svc.ownerTenant)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestUploadStatusOwnTenant 属主查询任务状态
func TestUploadStatusOwnTenant(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/upload/status/"+svc.jobID.String(), nil)
	req.Header.Set("X-Tenant-ID", svc.ownerTenant.String())
	req.Header.Set("X-User-ID", "u1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp JobStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, svc.jobID.String(), resp.JobID)
	assert.Equal(t, string(job.StatusQueued), resp.Status)
}

// TestUploadStatusCrossTenant404 他租户查询得到 404
func TestUploadStatusCrossTenant404(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/upload/status/"+svc.jobID.String(), nil)
	req.Header.Set("X-Tenant-ID", uuid.New().String())
	req.Header.Set("X-User-ID", "u1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestUploadStatusBadJobID 非 UUID 的 job_id 返回 400
func TestUploadStatusBadJobID(t *testing.T) {
	svc := newStubService()
	router := setupUploadRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/upload/status/not-a-uuid", nil)
	req.Header.Set("X-Tenant-ID", svc.ownerTenant.String())
	req.Header.Set("X-User-ID", "u1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
