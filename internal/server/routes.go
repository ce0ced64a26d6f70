package server

import (
	"context"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/service"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// 没有 proto 生成层，operation 常量手工维护
// 认证中间件的公开路径匹配基于这些字符串
const (
	OperationPublicHealthz       = "/v1.Public/Healthz"
	OperationPublicGetCaptcha    = "/v1.Public/GetCaptcha"
	OperationPublicLoginPage     = "/v1.Public/LoginPage"
	OperationPublicArtifactsPage = "/v1.Public/ArtifactsPage"

	OperationPassportRegister       = "/v1.Passport/Register"
	OperationPassportLogin          = "/v1.Passport/Login"
	OperationPassportLogout         = "/v1.Passport/Logout"
	OperationPassportUserInfo       = "/v1.Passport/UserInfo"
	OperationPassportUpdatePassword = "/v1.Passport/UpdatePassword"
	OperationPassportSessions       = "/v1.Passport/Sessions"
	OperationPassportRevokeAll      = "/v1.Passport/RevokeAll"

	OperationArtifactCreate = "/v1.Artifact/Create"
	OperationArtifactGet    = "/v1.Artifact/Get"
	OperationArtifactList   = "/v1.Artifact/List"
	OperationArtifactUpdate = "/v1.Artifact/Update"
	OperationArtifactDelete = "/v1.Artifact/Delete"
)

// RegisterRoutes 注册全部 HTTP 路由
func RegisterRoutes(
	srv *http.Server,
	public *service.PublicService,
	passport *service.PassportService,
	artifact *service.ArtifactService,
) {
	r := srv.Route("/")

	// 公开接口与页面
	r.GET("/healthz", handle(OperationPublicHealthz, public.Healthz))
	r.GET("/v1/public/captcha", handle(OperationPublicGetCaptcha, public.GetCaptcha))
	r.GET("/", handle(OperationPublicLoginPage, public.LoginPage))
	r.GET("/artifacts", handle(OperationPublicArtifactsPage, public.ArtifactsPage))

	// 凭证
	r.POST("/v1/passport/register", handle(OperationPassportRegister, passport.Register))
	r.POST("/v1/passport/login", handle(OperationPassportLogin, passport.Login))
	r.POST("/v1/passport/logout", handle(OperationPassportLogout, passport.Logout))
	r.GET("/v1/passport/userinfo", handle(OperationPassportUserInfo, passport.UserInfo))
	r.POST("/v1/passport/password", handle(OperationPassportUpdatePassword, passport.UpdatePassword))
	r.GET("/v1/passport/sessions", handle(OperationPassportSessions, passport.Sessions))
	r.POST("/v1/passport/revoke_all", handle(OperationPassportRevokeAll, passport.RevokeAll))

	// 制品
	r.POST("/v1/artifacts", handle(OperationArtifactCreate, artifact.Create))
	r.GET("/v1/artifacts/{id}", handle(OperationArtifactGet, artifact.Get))
	r.GET("/v1/artifacts", handle(OperationArtifactList, artifact.List))
	r.PUT("/v1/artifacts/{id}", handle(OperationArtifactUpdate, artifact.Update))
	r.DELETE("/v1/artifacts/{id}", handle(OperationArtifactDelete, artifact.Delete))
}

// handle 把 service 方法接成 kratos 路由处理函数
// 经由 ctx.Middleware 走完整中间件链，认证中间件按 operation 决定是否放行
func handle[Req any, Reply any](operation string, fn func(context.Context, *Req) (Reply, error)) func(http.Context) error {
	return func(ctx http.Context) error {
		var in Req
		method := ctx.Request().Method
		if method == "POST" || method == "PUT" || method == "PATCH" {
			if err := ctx.Bind(&in); err != nil {
				return err
			}
		}
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return fn(c, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
