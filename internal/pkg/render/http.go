package render

import (
	"encoding/json"
	"net/http"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/debug"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// Reply 统一 JSON 返回体
type Reply struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Debug 仅在开发/测试环境显示
	Debug interface{}     `json:"debug,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RawPage 标记型返回值：已渲染好的页面字节，直接写出不做 JSON 包装
type RawPage struct {
	ContentType string
	Body        []byte
}

// ResponseEncoder 成功响应的处理
func ResponseEncoder(w http.ResponseWriter, r *http.Request, data interface{}) error {
	// HTML 页面直接透传
	if page, ok := data.(*RawPage); ok {
		w.Header().Set("Content-Type", page.ContentType)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(page.Body)
		return err
	}

	res := &Reply{
		Code:    0,
		Message: "success",
	}

	// 非生产环境尝试从 Context 捞取调试信息
	if debug.IsDebug() {
		if debugInfo, ok := debug.FromContext(r.Context()); ok {
			res.Debug = debugInfo
		}
	}

	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		res.Data = b
	}

	body, err := json.Marshal(res)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

// ErrorEncoder 错误响应的处理
func ErrorEncoder(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.FromError(err)

	res := &Reply{
		Code:    int(se.Code),
		Message: se.Message,
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case se.Code == http.StatusUnauthorized:
		// 所有认证失败对外统一 401，细分原因只进日志
		w.WriteHeader(http.StatusUnauthorized)
	case se.Code >= 500:
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(int(se.Code))
	}
	_ = json.NewEncoder(w).Encode(res)
	log.Error(err)
}
