package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/job"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/cron"
)

func NewCronServer(
	logger log.Logger,
	tokenSweep *job.TokenSweepJob,
) *cron.Server {
	srv := cron.NewServer(logger)

	srv.AddJob(tokenSweep)

	return srv
}
