package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/biz"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
)

type PublicService struct {
	captcha  *biz.CaptchaUseCase
	artifact *biz.ArtifactUseCase
	app      *conf.App
	log      *log.Helper
}

func NewPublicService(captcha *biz.CaptchaUseCase, artifact *biz.ArtifactUseCase, app *conf.App, logger log.Logger) *PublicService {
	return &PublicService{captcha: captcha, artifact: artifact, app: app, log: log.NewHelper(logger)}
}

type GetCaptchaReply struct {
	CaptchaID string `json:"captcha_id"`
	ImageB64  string `json:"image_b64"`
}

type HealthzReply struct {
	Status string `json:"status"`
}

func (s *PublicService) GetCaptcha(ctx context.Context, _ *struct{}) (*GetCaptchaReply, error) {
	id, b64, err := s.captcha.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return &GetCaptchaReply{
		CaptchaID: id,
		ImageB64:  b64,
	}, nil
}

func (s *PublicService) Healthz(ctx context.Context, _ *struct{}) (*HealthzReply, error) {
	return &HealthzReply{Status: "ok"}, nil
}
