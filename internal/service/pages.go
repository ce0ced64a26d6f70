package service

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type loginPageData struct {
	MaxUses int32
}

type artifactsPageData struct {
	Total     int64
	Artifacts []*ArtifactReply
}

// LoginPage 凭证获取页面
func (s *PublicService) LoginPage(ctx context.Context, _ *struct{}) (*render.RawPage, error) {
	maxUses := int32(100)
	if s.app != nil && s.app.Auth != nil && s.app.Auth.MaxUses > 0 {
		maxUses = s.app.Auth.MaxUses
	}
	return renderPage("login.html", &loginPageData{MaxUses: maxUses})
}

// ArtifactsPage 制品列表页面
func (s *PublicService) ArtifactsPage(ctx context.Context, _ *struct{}) (*render.RawPage, error) {
	artifacts, total, err := s.artifact.ListArtifacts(ctx, 0, 1, 50)
	if err != nil {
		return nil, err
	}
	replies := make([]*ArtifactReply, 0, len(artifacts))
	for _, a := range artifacts {
		replies = append(replies, toArtifactReply(a, ""))
	}
	return renderPage("artifacts.html", &artifactsPageData{Total: total, Artifacts: replies})
}

func renderPage(name string, data interface{}) (*render.RawPage, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return &render.RawPage{
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}
