package objectstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateFileKeyFormat 键格式：tenant/<tenant_id>/uploads/<job_id>/<filename>
func TestGenerateFileKeyFormat(t *testing.T) {
	tenantID := uuid.New()
	jobID := uuid.New()

	key, err := GenerateFileKey(tenantID, jobID, "call.mp3")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("tenant/%s/uploads/%s/call.mp3", tenantID, jobID), key)
}

// TestGenerateFileKeyRejectsSeparators 含路径分隔符的文件名被拒绝
func TestGenerateFileKeyRejectsSeparators(t *testing.T) {
	for _, name := range []string{"../etc/passwd", "a/b.mp3", `a\b.mp3`} {
		_, err := GenerateFileKey(uuid.New(), uuid.New(), name)
		assert.ErrorIs(t, err, ErrInvalidFilename, "文件名 %q 应被拒绝", name)
	}
}

// TestGenerateFileKeyEmptyFilename 空文件名使用占位名
func TestGenerateFileKeyEmptyFilename(t *testing.T) {
	key, err := GenerateFileKey(uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "/upload"))
}

// TestGenerateFileKeyTruncatesLongNames 超长文件名截断但保留扩展名
func TestGenerateFileKeyTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 150) + ".mp3"
	key, err := GenerateFileKey(uuid.New(), uuid.New(), long)
	require.NoError(t, err)

	parts := strings.Split(key, "/")
	filename := parts[len(parts)-1]
	assert.LessOrEqual(t, len(filename), 100)
	assert.True(t, strings.HasSuffix(filename, ".mp3"))
}

// TestKeyBelongsToTenant 跨租户键校验
func TestKeyBelongsToTenant(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	key, err := GenerateFileKey(tenantA, uuid.New(), "a.wav")
	require.NoError(t, err)

	assert.True(t, KeyBelongsToTenant(key, tenantA))
	assert.False(t, KeyBelongsToTenant(key, tenantB))
	assert.False(t, KeyBelongsToTenant("tenant/"+tenantA.String()+"-suffix/uploads/x/y", tenantA))
}

// TestTenantFromKey 键中租户解析
func TestTenantFromKey(t *testing.T) {
	tenantID := uuid.New()
	key, err := GenerateFileKey(tenantID, uuid.New(), "a.wav")
	require.NoError(t, err)

	assert.Equal(t, tenantID.String(), TenantFromKey(key))
	assert.Equal(t, "", TenantFromKey("something/else"))
	assert.Equal(t, "", TenantFromKey(""))
}
