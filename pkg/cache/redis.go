package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

var rdb *redis.Client

// InitRedis 初始化Redis连接；Host 为空表示不使用Redis
func InitRedis(cfg config.RedisConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	rdb = client
	logger.Info("Redis cache initialized successfully")
	return nil
}

// Enabled 是否已启用Redis
func Enabled() bool { return rdb != nil }

// GetRedis 获取Redis客户端
func GetRedis() *redis.Client {
	return rdb
}

// Close 关闭Redis连接
func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}

// Set 设置缓存（JSON 编码）
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，未命中返回 ErrMiss
func Get(ctx context.Context, key string, dest interface{}) error {
	if rdb == nil {
		return ErrMiss
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// Health 检查Redis健康状态
func Health(ctx context.Context) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Ping(ctx).Err()
}
