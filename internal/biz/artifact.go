package biz

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/oss"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/score"
)

var (
	ErrArtifactNotFound = kerrors.NotFound("ARTIFACT_NOT_FOUND", "制品不存在")
	// ErrArtifactForbidden 只有属主能改写或删除制品
	ErrArtifactForbidden = kerrors.Forbidden("ARTIFACT_FORBIDDEN", "无权操作该制品")
	// ErrArtifactSizeExceeded 内容大小超出限制
	ErrArtifactSizeExceeded = kerrors.BadRequest("ARTIFACT_SIZE_EXCEEDED", "内容大小超出限制")
	// ErrArtifactTypeNotAllowed 内容类型不允许
	ErrArtifactTypeNotAllowed = kerrors.BadRequest("ARTIFACT_TYPE_NOT_ALLOWED", "内容类型不允许")
	// ErrArtifactStoreFailed 内容写入对象存储失败
	ErrArtifactStoreFailed = kerrors.InternalServer("ARTIFACT_STORE_FAILED", "制品内容写入失败")
)

// Artifact 制品
type Artifact struct {
	ID          int64
	Name        string
	Kind        string
	ContentKey  string
	ContentType string
	Size        int64
	Score       float64
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ArtifactRepo interface {
	CreateArtifact(ctx context.Context, a *Artifact) (*Artifact, error)
	GetArtifact(ctx context.Context, id int64) (*Artifact, error)
	ListArtifacts(ctx context.Context, ownerID int64, offset, limit int) ([]*Artifact, int64, error)
	UpdateArtifact(ctx context.Context, a *Artifact) error
	DeleteArtifact(ctx context.Context, id int64) error
}

// ArtifactInput 制品写入输入
type ArtifactInput struct {
	Name    string
	Kind    string
	Content []byte
}

type ArtifactUseCase struct {
	repo   ArtifactRepo
	oss    oss.Storage
	config *conf.App_Artifact
	log    *log.Helper
}

func NewArtifactUseCase(repo ArtifactRepo, storage oss.Storage, c *conf.App, logger log.Logger) *ArtifactUseCase {
	return &ArtifactUseCase{
		repo:   repo,
		oss:    storage,
		config: c.Artifact,
		log:    log.NewHelper(logger),
	}
}

// CreateArtifact 写入内容、计算启发式评分并落元数据
func (uc *ArtifactUseCase) CreateArtifact(ctx context.Context, ownerID int64, input *ArtifactInput) (*Artifact, error) {
	contentType, err := uc.verifyContent(input.Content)
	if err != nil {
		return nil, err
	}

	key := uc.generateContentKey(input.Name)
	if _, err := uc.oss.Upload(ctx, key, bytes.NewReader(input.Content), int64(len(input.Content)), contentType, uc.isPrivate()); err != nil {
		uc.log.Errorf("Failed to upload artifact content: %v", err)
		return nil, ErrArtifactStoreFailed
	}

	metrics := score.Evaluate(input.Content)
	artifact := &Artifact{
		Name:        input.Name,
		Kind:        input.Kind,
		ContentKey:  key,
		ContentType: contentType,
		Size:        int64(len(input.Content)),
		Score:       metrics.Composite,
		OwnerID:     ownerID,
	}
	return uc.repo.CreateArtifact(ctx, artifact)
}

// GetArtifact 读取元数据并附带内容访问 URL
func (uc *ArtifactUseCase) GetArtifact(ctx context.Context, id int64) (*Artifact, string, error) {
	artifact, err := uc.repo.GetArtifact(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return artifact, uc.contentURL(ctx, artifact.ContentKey), nil
}

func (uc *ArtifactUseCase) ListArtifacts(ctx context.Context, ownerID int64, page, pageSize int) ([]*Artifact, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.repo.ListArtifacts(ctx, ownerID, (page-1)*pageSize, pageSize)
}

// UpdateArtifact 改写内容并重算评分；旧内容在新内容写成功后删除
func (uc *ArtifactUseCase) UpdateArtifact(ctx context.Context, ownerID, id int64, input *ArtifactInput) (*Artifact, error) {
	artifact, err := uc.repo.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact.OwnerID != ownerID {
		return nil, ErrArtifactForbidden
	}

	contentType, err := uc.verifyContent(input.Content)
	if err != nil {
		return nil, err
	}

	key := uc.generateContentKey(input.Name)
	if _, err := uc.oss.Upload(ctx, key, bytes.NewReader(input.Content), int64(len(input.Content)), contentType, uc.isPrivate()); err != nil {
		uc.log.Errorf("Failed to upload artifact content: %v", err)
		return nil, ErrArtifactStoreFailed
	}

	oldKey := artifact.ContentKey
	metrics := score.Evaluate(input.Content)
	artifact.Name = input.Name
	artifact.Kind = input.Kind
	artifact.ContentKey = key
	artifact.ContentType = contentType
	artifact.Size = int64(len(input.Content))
	artifact.Score = metrics.Composite

	if err := uc.repo.UpdateArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	if err := uc.oss.Delete(ctx, oldKey); err != nil {
		// 旧内容清理失败只记日志，元数据已经指向新内容
		uc.log.Warnf("Failed to delete old artifact content %s: %v", oldKey, err)
	}
	return artifact, nil
}

func (uc *ArtifactUseCase) DeleteArtifact(ctx context.Context, ownerID, id int64) error {
	artifact, err := uc.repo.GetArtifact(ctx, id)
	if err != nil {
		return err
	}
	if artifact.OwnerID != ownerID {
		return ErrArtifactForbidden
	}

	if err := uc.repo.DeleteArtifact(ctx, id); err != nil {
		return err
	}
	if err := uc.oss.Delete(ctx, artifact.ContentKey); err != nil {
		uc.log.Warnf("Failed to delete artifact content %s: %v", artifact.ContentKey, err)
	}
	return nil
}

// verifyContent 校验大小与类型，返回服务端嗅探出的内容类型
func (uc *ArtifactUseCase) verifyContent(content []byte) (string, error) {
	maxSize := int64(4 << 20)
	if uc.config != nil && uc.config.MaxSize > 0 {
		maxSize = uc.config.MaxSize
	}
	if int64(len(content)) > maxSize {
		return "", ErrArtifactSizeExceeded
	}

	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	// DetectContentType 可能带 charset 参数，匹配时只看主类型
	mainType := contentType
	if i := strings.Index(mainType, ";"); i >= 0 {
		mainType = strings.TrimSpace(mainType[:i])
	}

	if uc.config == nil || len(uc.config.AllowedTypes) == 0 {
		return contentType, nil
	}
	for _, t := range uc.config.AllowedTypes {
		if strings.EqualFold(t, mainType) {
			return contentType, nil
		}
		// 支持通配符 (如 text/*)
		if strings.HasSuffix(t, "/*") && strings.HasPrefix(mainType, strings.TrimSuffix(t, "/*")) {
			return contentType, nil
		}
	}
	return "", ErrArtifactTypeNotAllowed
}

// generateContentKey 生成对象存储路径：前缀 + 日期目录 + 唯一文件名
func (uc *ArtifactUseCase) generateContentKey(name string) string {
	prefix := "artifact"
	if uc.config != nil && uc.config.PathPrefix != "" {
		prefix = strings.TrimSuffix(uc.config.PathPrefix, "/")
	}
	ext := filepath.Ext(name)
	uniqueName := fmt.Sprintf("%s_%s%s",
		time.Now().Format("20060102150405"),
		uuid.New().String()[:8],
		ext,
	)
	dateDir := time.Now().Format("2006/01/02")
	return prefix + "/" + dateDir + "/" + uniqueName
}

func (uc *ArtifactUseCase) isPrivate() bool {
	return uc.config != nil && uc.config.IsPrivate
}

func (uc *ArtifactUseCase) contentURL(ctx context.Context, key string) string {
	expires := time.Hour
	if uc.config != nil && uc.config.PrivateUrlExpires != nil {
		expires = uc.config.PrivateUrlExpires.AsDuration()
	}
	return uc.oss.GenerateURL(ctx, key, uc.isPrivate(), expires)
}
