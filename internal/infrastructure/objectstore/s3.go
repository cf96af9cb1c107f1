package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// ErrInvalidFilename 文件名含路径分隔符
var ErrInvalidFilename = errors.New("filename must not contain path separators")

// maxFilenameLength 对象键中保留的文件名长度上限
const maxFilenameLength = 100

// Store 对象存储服务：预签名 URL 生成与对象校验
// 桶不开放公共访问，一切读写都走预签名 URL
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	putTTL  time.Duration
	getTTL  time.Duration
	logger  *slog.Logger
}

// NewStore 创建对象存储服务
func NewStore(cfg *config.UploadConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.BucketName,
		putTTL:  cfg.PutURLTTL,
		getTTL:  cfg.GetURLTTL,
		logger:  applog.NewModuleLogger("objectstore", "s3"),
	}, nil
}

// GenerateFileKey 生成租户隔离的对象键
// 格式：tenant/<tenant_id>/uploads/<job_id>/<safe_filename>
// 含路径分隔符的文件名直接拒绝；超长文件名截断但保留扩展名
func GenerateFileKey(tenantID, jobID uuid.UUID, filename string) (string, error) {
	if strings.ContainsAny(filename, "/\\") {
		return "", ErrInvalidFilename
	}
	if filename == "" {
		filename = "upload"
	}

	if len(filename) > maxFilenameLength {
		if dot := strings.LastIndex(filename, "."); dot > 0 {
			name, ext := filename[:dot], filename[dot:]
			keep := maxFilenameLength - len(ext)
			if keep < 1 {
				keep = 1
			}
			filename = name[:min(keep, len(name))] + ext
		} else {
			filename = filename[:maxFilenameLength]
		}
	}

	return fmt.Sprintf("tenant/%s/uploads/%s/%s", tenantID, jobID, filename), nil
}

// TenantFromKey 从对象键中取出租户 ID；格式不符返回空串
func TenantFromKey(fileKey string) string {
	parts := strings.Split(fileKey, "/")
	if len(parts) >= 2 && parts[0] == "tenant" {
		return parts[1]
	}
	return ""
}

// KeyBelongsToTenant 校验对象键属于指定租户（跨租户访问防线）
func KeyBelongsToTenant(fileKey string, tenantID uuid.UUID) bool {
	return strings.HasPrefix(fileKey, "tenant/"+tenantID.String()+"/")
}

// PresignPut 生成限时 PUT URL 供浏览器直传
func (s *Store) PresignPut(ctx context.Context, fileKey, contentType string) (string, time.Time, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.putTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign PUT URL: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.putTTL)
	s.logger.Info("Generated presigned PUT URL",
		"key_prefix", keyPrefix(fileKey),
		"expires_in", s.putTTL.String(),
	)
	return req.URL, expiresAt, nil
}

// PresignGet 生成限时 GET URL 供转写方拉取文件
func (s *Store) PresignGet(ctx context.Context, fileKey string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(s.getTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET URL: %w", err)
	}

	s.logger.Info("Generated presigned GET URL",
		"key_prefix", keyPrefix(fileKey),
		"expires_in", s.getTTL.String(),
	)
	return req.URL, nil
}

// Exists 校验对象已上传
func (s *Store) Exists(ctx context.Context, fileKey string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// keyPrefix 日志里只记录键前缀
func keyPrefix(fileKey string) string {
	if len(fileKey) <= 50 {
		return fileKey
	}
	return fileKey[:50] + "..."
}
