package data

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/biz"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/data/model"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/idgen"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/idgen/snowflake"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/oss"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewDB,
	NewRedis,
	NewIDGenerator,
	NewRedisCaptchaStore,
	NewUserRepo,
	NewArtifactRepo,
	oss.NewOSS,
	wire.Bind(new(biz.Transaction), new(*Data)),
)

// Data .
// 注意：所有需要关闭的资源必须在 cleanup 中显式处理
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewData .
// 依赖 idgen 以确保雪花生成器在建库前完成初始化
func NewData(c *conf.Data, logger log.Logger, db *gorm.DB, rdb *redis.Client, _ idgen.IDGenerator) (*Data, func(), error) {
	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		// GORM 的连接池由标准库 sql.DB 管理，不需要手动关闭
		if err := rdb.Close(); err != nil {
			log.NewHelper(logger).Error(err)
		}
	}

	return &Data{
		db:  db,
		rdb: rdb,
	}, cleanup, nil
}

// NewDB 初始化数据库 (GORM)
func NewDB(c *conf.Data, l log.Logger) *gorm.DB {
	var dialector gorm.Dialector
	switch c.Database.Driver {
	case "postgres":
		dialector = postgres.Open(c.Database.Source)
	case "mysql":
		// 预留 MySQL 适配
		dialector = mysql.Open(c.Database.Source)
	default:
		// 默认使用 Postgres
		dialector = postgres.Open(c.Database.Source)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(l),
	})
	if err != nil {
		log.NewHelper(l).Fatalf("failed opening connection to database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Artifact{}); err != nil {
		log.NewHelper(l).Errorf("failed to migrate schema: %v", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		log.NewHelper(l).Fatalf("failed to get sql DB from gorm: %v", err)
	}

	if c.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(int(c.Database.MaxIdleConns))
	} else {
		sqlDB.SetMaxIdleConns(10)
	}
	if c.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(int(c.Database.MaxOpenConns))
	} else {
		sqlDB.SetMaxOpenConns(100)
	}
	if c.Database.ConnMaxLifetime != nil {
		sqlDB.SetConnMaxLifetime(c.Database.ConnMaxLifetime.AsDuration())
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db
}

// NewRedis 初始化 Redis 客户端
func NewRedis(c *conf.Data, l log.Logger) *redis.Client {
	var readTimeout, writeTimeout time.Duration
	if c.Redis.ReadTimeout != nil {
		readTimeout = c.Redis.ReadTimeout.AsDuration()
	}
	if c.Redis.WriteTimeout != nil {
		writeTimeout = c.Redis.WriteTimeout.AsDuration()
	}

	rdb := redis.NewClient(&redis.Options{
		Network:      c.Redis.Network,
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           int(c.Redis.Db),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx := context.Background()
	helper := log.NewHelper(l)

	// 连通性检查，简单重试 3 次
	for i := 0; i < 3; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err == nil {
			cancel()
			return rdb
		}
		cancel()
		helper.Infof("failed connecting to redis, retrying... (%d/3)", i+1)
		time.Sleep(1 * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		helper.Fatalf("failed connecting to redis: %v", err)
	}

	return rdb
}

// NewIDGenerator 初始化雪花 ID 生成器并挂到模型层
func NewIDGenerator() idgen.IDGenerator {
	g := snowflake.NewSnowflake(0)
	model.SetIDGenerator(g)
	return g
}

// RDB 返回原始 Redis 客户端
func (d *Data) RDB() *redis.Client {
	return d.rdb
}

// contextTxKey 事务在 Context 中的 Key
type contextTxKey struct{}

// InTx 事务包装器实现 (biz.Transaction 接口)
func (d *Data) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 将事务对象注入 Context
		ctx = context.WithValue(ctx, contextTxKey{}, tx)
		return fn(ctx)
	})
}

// DB 返回 GORM 实例（事务上下文内返回事务对象）
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}
