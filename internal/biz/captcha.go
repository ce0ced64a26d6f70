package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/mojocn/base64Captcha"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/debug"
)

var (
	ErrorImageCaptchaEmpty        = errors.BadRequest("IMAGE_CAPTCHA_EMPTY", "验证码不能为空")
	ErrorImageCaptchaVerifyFailed = errors.BadRequest("IMAGE_CAPTCHA_VERIFY_FAILED", "图片验证码错误")
)

// CaptchaUseCase 图片验证码，守住凭证签发入口
type CaptchaUseCase struct {
	store base64Captcha.Store
	log   *log.Helper
}

func NewCaptchaUseCase(store base64Captcha.Store, logger log.Logger) *CaptchaUseCase {
	return &CaptchaUseCase{
		store: store,
		log:   log.NewHelper(logger),
	}
}

// Generate 生成验证码
func (uc *CaptchaUseCase) Generate(ctx context.Context) (id, b64 string, err error) {
	// 清爽数字版
	driver := base64Captcha.NewDriverDigit(80, 240, 4, 0.3, 10)
	cp := base64Captcha.NewCaptcha(driver, uc.store)

	id, b64, answer, err := cp.Generate()
	if err != nil {
		return "", "", err
	}

	// 调试模式下把答案注入 Context，方便联调
	if debug.IsDebug() {
		if info, ok := debug.FromContext(ctx); ok {
			info["captcha_answer"] = answer
		}
	}

	return id, b64, nil
}

// Verify 验证验证码
func (uc *CaptchaUseCase) Verify(ctx context.Context, id, answer string) error {
	if id == "" || answer == "" {
		return ErrorImageCaptchaEmpty
	}

	// 校验并自动删除（防止重放攻击）
	if !uc.store.Verify(id, answer, true) {
		return ErrorImageCaptchaVerifyFailed
	}
	return nil
}
