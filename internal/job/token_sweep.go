package job

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/store"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/cron"
)

// ProviderSet is job providers.
var ProviderSet = wire.NewSet(NewTokenSweepJob)

var _ cron.Job = (*TokenSweepJob)(nil)

// TokenSweepJob 定期清理过期令牌记录与失效索引
// 只是回收辅助：验证链路独立校验有效期，从不依赖这里的及时性
type TokenSweepJob struct {
	cron.BaseJob
	store store.TokenStore
	log   *log.Helper
}

func NewTokenSweepJob(tokenStore store.TokenStore, logger log.Logger) *TokenSweepJob {
	return &TokenSweepJob{
		BaseJob: cron.BaseJob{
			JobName: "TokenSweepJob",
			JobSpec: cron.EveryFiveMinutesSpec,
			JobDesc: "清理过期令牌记录与失效索引",
		},
		store: tokenStore,
		log:   log.NewHelper(logger),
	}
}

func (j *TokenSweepJob) Run() {
	purged, err := j.store.PurgeExpired(context.Background())
	if err != nil {
		j.log.Errorf("Token sweep failed: %v", err)
		return
	}
	if purged > 0 {
		j.log.Infof("Token sweep purged %d stale entries", purged)
	}
}
