package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/store"
)

// mockTransport 最小化的 transport.Transporter 实现，供中间件测试注入请求头
type mockTransport struct {
	operation string
	reqHeader headerCarrier
}

func (tr *mockTransport) Kind() transport.Kind            { return transport.KindHTTP }
func (tr *mockTransport) Endpoint() string                { return "" }
func (tr *mockTransport) Operation() string               { return tr.operation }
func (tr *mockTransport) RequestHeader() transport.Header { return tr.reqHeader }
func (tr *mockTransport) ReplyHeader() transport.Header   { return tr.reqHeader }

type headerCarrier http.Header

func (hc headerCarrier) Get(key string) string        { return http.Header(hc).Get(key) }
func (hc headerCarrier) Set(key, value string)        { http.Header(hc).Set(key, value) }
func (hc headerCarrier) Add(key, value string)        { http.Header(hc).Add(key, value) }
func (hc headerCarrier) Keys() []string {
	keys := make([]string, 0, len(hc))
	for k := range http.Header(hc) {
		keys = append(keys, k)
	}
	return keys
}
func (hc headerCarrier) Values(key string) []string { return http.Header(hc).Values(key) }

func serverContext(operation string, headers map[string]string) context.Context {
	hc := headerCarrier{}
	for k, v := range headers {
		hc.Set(k, v)
	}
	return transport.NewServerContext(context.Background(), &mockTransport{
		operation: operation,
		reqHeader: hc,
	})
}

func issueTestToken(t *testing.T, maxUses int64) (TokenService, string) {
	t.Helper()
	svc := NewJWTTokenService("test-secret", time.Hour, maxUses, store.NewMemoryTokenStore(), log.NewStdLogger(io.Discard))
	issued, err := svc.IssueToken(context.Background(), &Subject{UserID: "42", Username: "tester"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return svc, issued.Token
}

func passthroughHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return "ok", nil
}

// 各种合法的凭证携带方式都要能被提取出来
func TestVerifyConsumeHeaderMatrix(t *testing.T) {
	svc, token := issueTestToken(t, 100)
	handler := VerifyConsume(svc)(passthroughHandler)

	cases := []struct {
		name    string
		headers map[string]string
	}{
		{"bearer prefix", map[string]string{"Authorization": "Bearer " + token}},
		{"lowercase bearer", map[string]string{"Authorization": "bearer " + token}},
		{"bare token", map[string]string{"Authorization": token}},
		{"padded", map[string]string{"Authorization": "  Bearer " + token + "  "}},
		{"legacy header", map[string]string{"X-Authorization": "Bearer " + token}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := serverContext("/v1.Artifact/GetArtifact", tc.headers)
			if _, err := handler(ctx, nil); err != nil {
				t.Fatalf("handler: %v", err)
			}
		})
	}
}

func TestVerifyConsumeRejections(t *testing.T) {
	svc, _ := issueTestToken(t, 100)
	handler := VerifyConsume(svc)(passthroughHandler)

	cases := []struct {
		name    string
		headers map[string]string
		want    error
	}{
		{"no header", nil, ErrMissingToken},
		{"empty header", map[string]string{"Authorization": "   "}, ErrMissingToken},
		{"prefix only", map[string]string{"Authorization": "Bearer   "}, ErrMissingToken},
		{"scheme only", map[string]string{"Authorization": "Bearer"}, ErrMissingToken},
		{"lowercase scheme only", map[string]string{"Authorization": "bearer"}, ErrMissingToken},
		{"garbage token", map[string]string{"Authorization": "Bearer not-a-jwt"}, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := serverContext("/v1.Artifact/GetArtifact", tc.headers)
			if _, err := handler(ctx, nil); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

// 无 transport 的裸 Context 视同缺少凭证
func TestVerifyConsumeNoTransport(t *testing.T) {
	svc, _ := issueTestToken(t, 100)
	handler := VerifyConsume(svc)(passthroughHandler)

	if _, err := handler(context.Background(), nil); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("got %v, want ErrMissingToken", err)
	}
}

// 验证通过后下游能从 Context 里读到声明
func TestVerifyConsumeClaimsInContext(t *testing.T) {
	svc, token := issueTestToken(t, 100)

	var seen *Claims
	handler := VerifyConsume(svc)(func(ctx context.Context, req interface{}) (interface{}, error) {
		claims, ok := FromContext(ctx)
		if !ok {
			t.Fatal("claims missing from downstream context")
		}
		seen = claims
		return nil, nil
	})

	ctx := serverContext("/v1.Artifact/GetArtifact", map[string]string{"Authorization": "Bearer " + token})
	if _, err := handler(ctx, nil); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if seen.Subject != "42" || seen.Username != "tester" {
		t.Fatalf("claims = %+v, want subject 42 / tester", seen)
	}
}

// 每次进入业务前扣一次配额，扣完即拒
func TestVerifyConsumeSpendsQuota(t *testing.T) {
	svc, token := issueTestToken(t, 2)
	handler := VerifyConsume(svc)(passthroughHandler)
	headers := map[string]string{"Authorization": "Bearer " + token}

	for i := 0; i < 2; i++ {
		if _, err := handler(serverContext("/v1.Artifact/GetArtifact", headers), nil); err != nil {
			t.Fatalf("request #%d: %v", i+1, err)
		}
	}
	if _, err := handler(serverContext("/v1.Artifact/GetArtifact", headers), nil); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("third request: got %v, want ErrTokenRevoked", err)
	}
}

// 公开路径不经过验证，受保护路径无凭证直接拒绝
func TestMiddlewarePublicPathBypass(t *testing.T) {
	svc, _ := issueTestToken(t, 100)
	config := PathAccessConfigWithPublicList([]string{
		"/v1.Public/",
		"/v1.Passport/Login",
	})
	handler := Middleware(svc, config)(passthroughHandler)

	for _, operation := range []string{"/v1.Public/GetCaptcha", "/v1.Passport/Login"} {
		if _, err := handler(serverContext(operation, nil), nil); err != nil {
			t.Fatalf("public operation %s: %v", operation, err)
		}
	}

	if _, err := handler(serverContext("/v1.Artifact/GetArtifact", nil), nil); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("protected operation: got %v, want ErrMissingToken", err)
	}
}

func TestMatch(t *testing.T) {
	paths := map[string]struct{}{
		"/v1.Passport/Login": {},
		"/v1.Public/":        {},
	}
	cases := []struct {
		operation string
		want      bool
	}{
		{"/v1.Passport/Login", true},
		{"/v1.Passport/Logout", false},
		{"/v1.Public/GetCaptcha", true},
		{"/v1.Public/", true},
		{"/v1.Publicity/Other", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Match(tc.operation, paths); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.operation, got, tc.want)
		}
	}
}
