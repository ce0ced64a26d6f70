package server

import (
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/debug"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/render"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	app *conf.App,
	public *service.PublicService,
	passport *service.PassportService,
	artifact *service.ArtifactService,
	tokenService auth.TokenService,
	logger log.Logger,
) *http.Server {

	var publicPaths []string
	if app.Auth != nil {
		publicPaths = app.Auth.PublicPaths
	}

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			auth.Middleware(tokenService, auth.PathAccessConfigWithPublicList(publicPaths)),
		),
		http.Filter(debug.Filter),
		http.ResponseEncoder(render.ResponseEncoder),
		http.ErrorEncoder(render.ErrorEncoder),
	}

	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}

	srv := http.NewServer(opts...)
	RegisterRoutes(srv, public, passport, artifact)

	return srv
}
