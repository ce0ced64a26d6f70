package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/biz"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth"
)

type ArtifactService struct {
	uc *biz.ArtifactUseCase
}

func NewArtifactService(uc *biz.ArtifactUseCase) *ArtifactService {
	return &ArtifactService{uc: uc}
}

type CreateArtifactRequest struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type ArtifactReply struct {
	ID          int64   `json:"id,string"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	ContentType string  `json:"content_type"`
	ContentURL  string  `json:"content_url,omitempty"`
	Size        int64   `json:"size"`
	Score       float64 `json:"score"`
	OwnerID     int64   `json:"owner_id,string"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

type GetArtifactRequest struct {
	ID int64 `json:"id,string"`
}

type ListArtifactsRequest struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Mine     bool `json:"mine"`
}

type ListArtifactsReply struct {
	Total     int64            `json:"total"`
	Artifacts []*ArtifactReply `json:"artifacts"`
}

type UpdateArtifactRequest struct {
	ID      int64  `json:"id,string"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type DeleteArtifactRequest struct {
	ID int64 `json:"id,string"`
}

type DeleteArtifactReply struct{}

func (s *ArtifactService) Create(ctx context.Context, req *CreateArtifactRequest) (*ArtifactReply, error) {
	if req.Name == "" {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "制品名称不能为空")
	}
	ownerID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	artifact, err := s.uc.CreateArtifact(ctx, ownerID, &biz.ArtifactInput{
		Name:    req.Name,
		Kind:    req.Kind,
		Content: []byte(req.Content),
	})
	if err != nil {
		return nil, err
	}
	return toArtifactReply(artifact, ""), nil
}

func (s *ArtifactService) Get(ctx context.Context, req *GetArtifactRequest) (*ArtifactReply, error) {
	artifact, url, err := s.uc.GetArtifact(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toArtifactReply(artifact, url), nil
}

func (s *ArtifactService) List(ctx context.Context, req *ListArtifactsRequest) (*ListArtifactsReply, error) {
	var ownerID int64
	if req.Mine {
		id, err := auth.UserIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		ownerID = id
	}

	artifacts, total, err := s.uc.ListArtifacts(ctx, ownerID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	replies := make([]*ArtifactReply, 0, len(artifacts))
	for _, a := range artifacts {
		replies = append(replies, toArtifactReply(a, ""))
	}
	return &ListArtifactsReply{Total: total, Artifacts: replies}, nil
}

func (s *ArtifactService) Update(ctx context.Context, req *UpdateArtifactRequest) (*ArtifactReply, error) {
	ownerID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	artifact, err := s.uc.UpdateArtifact(ctx, ownerID, req.ID, &biz.ArtifactInput{
		Name:    req.Name,
		Kind:    req.Kind,
		Content: []byte(req.Content),
	})
	if err != nil {
		return nil, err
	}
	return toArtifactReply(artifact, ""), nil
}

func (s *ArtifactService) Delete(ctx context.Context, req *DeleteArtifactRequest) (*DeleteArtifactReply, error) {
	ownerID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.uc.DeleteArtifact(ctx, ownerID, req.ID); err != nil {
		return nil, err
	}
	return &DeleteArtifactReply{}, nil
}

func toArtifactReply(a *biz.Artifact, url string) *ArtifactReply {
	return &ArtifactReply{
		ID:          a.ID,
		Name:        a.Name,
		Kind:        a.Kind,
		ContentType: a.ContentType,
		ContentURL:  url,
		Size:        a.Size,
		Score:       a.Score,
		OwnerID:     a.OwnerID,
		CreatedAt:   a.CreatedAt.Unix(),
		UpdatedAt:   a.UpdatedAt.Unix(),
	}
}
