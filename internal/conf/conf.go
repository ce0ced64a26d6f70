package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 启动配置根节点，对应 configs/config.yaml
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	App    *App    `json:"app"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Oss      *Data_Oss      `json:"oss"`
	// TokenStore 令牌存储类型：redis / memory（memory 仅用于开发与测试）
	TokenStore string `json:"token_store"`
}

type Data_Database struct {
	Driver          string    `json:"driver"`
	Source          string    `json:"source"`
	MaxIdleConns    int32     `json:"max_idle_conns"`
	MaxOpenConns    int32     `json:"max_open_conns"`
	ConnMaxLifetime *Duration `json:"conn_max_lifetime"`
}

type Data_Redis struct {
	Network      string    `json:"network"`
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Db           int32     `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	// OpTimeout 单次存储操作的超时上限，避免验证链路被无限阻塞
	OpTimeout *Duration `json:"op_timeout"`
}

type Data_Oss struct {
	Provider        string `json:"provider"`
	Endpoint        string `json:"endpoint"`
	AccessKeyId     string `json:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret"`
	Bucket          string `json:"bucket"`
	Domain          string `json:"domain"`
	UseHttps        bool   `json:"use_https"`
}

type App struct {
	Env      string        `json:"env"`
	Auth     *App_Auth     `json:"auth"`
	Artifact *App_Artifact `json:"artifact"`
}

type App_Auth struct {
	// Secret HS256 签名密钥，缺失时启动直接失败
	Secret string `json:"secret"`
	// TokenTtl 令牌有效期，默认 2 小时
	TokenTtl *Duration `json:"token_ttl"`
	// MaxUses 单个令牌的最大使用次数，默认 100
	MaxUses int32 `json:"max_uses"`
	// PublicPaths 无需认证即可访问的 operation 列表
	PublicPaths []string `json:"public_paths"`
}

type App_Artifact struct {
	// MaxSize 内容大小上限（字节）
	MaxSize int64 `json:"max_size"`
	// AllowedTypes 允许的内容类型，支持 image/* 通配
	AllowedTypes []string `json:"allowed_types"`
	// PathPrefix 对象存储中的路径前缀
	PathPrefix string `json:"path_prefix"`
	// IsPrivate 内容是否私有（私有内容走预签名 URL）
	IsPrivate         bool      `json:"is_private"`
	PrivateUrlExpires *Duration `json:"private_url_expires"`
}

// Duration 支持 "3s" / "2h" 字符串形式的时长配置
// 替代 protobuf 的 durationpb，便于纯 YAML 配置直接 Scan
type Duration time.Duration

func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		// 纯数字按秒处理
		*d = Duration(time.Duration(value) * time.Second)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
}
