// Package storage 把生成的合同快照镜像到 S3 兼容的对象存储
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypeJSON = "application/json"

// SnapshotArchive MinIO 合同快照归档
type SnapshotArchive struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
}

// snapshotDocument 归档对象的内容
type snapshotDocument struct {
	ID              string          `json:"id"`
	OfficeID        string          `json:"office_id"`
	TemplateID      string          `json:"template_id"`
	TemplateName    string          `json:"template_name"`
	ContractNumber  string          `json:"contract_number"`
	ContentSnapshot string          `json:"content_snapshot"`
	DataSnapshot    json.RawMessage `json:"data_snapshot"`
	ContentHash     string          `json:"content_hash"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewSnapshotArchive 创建 MinIO 客户端,不会立即连接
func NewSnapshotArchive(cfg *config.StorageConfig) (*SnapshotArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	hours := cfg.PresignHours
	if hours <= 0 {
		hours = 24
	}
	return &SnapshotArchive{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: time.Duration(hours) * time.Hour,
	}, nil
}

// EnsureBucket 桶不存在时创建
func (a *SnapshotArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ObjectName 对象路径: <公证处>/<年份>/<合同编号>-<合同 ID>.json
func ObjectName(contract *model.ContractModel) string {
	return fmt.Sprintf("%s/%d/%s-%s.json",
		contract.OfficeID,
		contract.CreatedAt.Year(),
		contract.ContractNumber,
		contract.ID,
	)
}

// Put 上传合同快照,返回对象路径
func (a *SnapshotArchive) Put(ctx context.Context, contract *model.ContractModel) (string, error) {
	data := json.RawMessage(contract.DataSnapshot)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	body, err := json.Marshal(snapshotDocument{
		ID:              contract.ID,
		OfficeID:        contract.OfficeID,
		TemplateID:      contract.TemplateID,
		TemplateName:    contract.TemplateName,
		ContractNumber:  contract.ContractNumber,
		ContentSnapshot: contract.ContentSnapshot,
		DataSnapshot:    data,
		ContentHash:     contract.ContentHash,
		CreatedBy:       contract.CreatedBy,
		CreatedAt:       contract.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name := ObjectName(contract)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentTypeJSON,
		UserMetadata: map[string]string{
			"content-hash": contract.ContentHash,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return name, nil
}

// PresignedURL 生成限时下载链接
func (a *SnapshotArchive) PresignedURL(ctx context.Context, objectName string) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, a.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// Ping 检查桶是否可访问,用于健康检查
func (a *SnapshotArchive) Ping(ctx context.Context) error {
	_, err := a.client.BucketExists(ctx, a.bucket)
	return err
}
