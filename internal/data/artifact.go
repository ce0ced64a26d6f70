package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/biz"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/data/model"
	"gorm.io/gorm"
)

var _ biz.ArtifactRepo = (*artifactRepo)(nil)

type artifactRepo struct {
	data *Data
	log  *log.Helper
}

func NewArtifactRepo(data *Data, logger log.Logger) biz.ArtifactRepo {
	return &artifactRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *artifactRepo) CreateArtifact(ctx context.Context, a *biz.Artifact) (*biz.Artifact, error) {
	m := r.toModel(a)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toBiz(m), nil
}

func (r *artifactRepo) GetArtifact(ctx context.Context, id int64) (*biz.Artifact, error) {
	var m model.Artifact
	if err := r.data.DB(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrArtifactNotFound
		}
		return nil, err
	}
	return r.toBiz(&m), nil
}

func (r *artifactRepo) ListArtifacts(ctx context.Context, ownerID int64, offset, limit int) ([]*biz.Artifact, int64, error) {
	db := r.data.DB(ctx).Model(&model.Artifact{})
	if ownerID > 0 {
		db = db.Where("owner_id = ?", ownerID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Artifact
	if err := db.Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	artifacts := make([]*biz.Artifact, 0, len(rows))
	for i := range rows {
		artifacts = append(artifacts, r.toBiz(&rows[i]))
	}
	return artifacts, total, nil
}

func (r *artifactRepo) UpdateArtifact(ctx context.Context, a *biz.Artifact) error {
	return r.data.DB(ctx).
		Model(&model.Artifact{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"name":         a.Name,
			"kind":         a.Kind,
			"content_key":  a.ContentKey,
			"content_type": a.ContentType,
			"size":         a.Size,
			"score":        a.Score,
		}).Error
}

func (r *artifactRepo) DeleteArtifact(ctx context.Context, id int64) error {
	return r.data.DB(ctx).Delete(&model.Artifact{}, id).Error
}

func (r *artifactRepo) toModel(a *biz.Artifact) *model.Artifact {
	return &model.Artifact{
		BaseModel:   model.BaseModel{ID: a.ID},
		Name:        a.Name,
		Kind:        a.Kind,
		ContentKey:  a.ContentKey,
		ContentType: a.ContentType,
		Size:        a.Size,
		Score:       a.Score,
		OwnerID:     a.OwnerID,
	}
}

func (r *artifactRepo) toBiz(m *model.Artifact) *biz.Artifact {
	return &biz.Artifact{
		ID:          m.ID,
		Name:        m.Name,
		Kind:        m.Kind,
		ContentKey:  m.ContentKey,
		ContentType: m.ContentType,
		Size:        m.Size,
		Score:       m.Score,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
