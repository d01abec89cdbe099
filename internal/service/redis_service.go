package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 创建 Redis 客户端；未启用或连接失败时返回 nil，调用方降级为内存模式。
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Printf("⚠️ Redis 不可用，降级为内存模式: %v", err)
		return nil
	}

	log.Printf("✅ Redis 已连接: %s (db=%d)", cfg.Addr, cfg.DB)
	return client
}

// RedisKey 基于前缀拼接 Redis 键名。
func RedisKey(prefix string, parts ...string) string {
	if prefix == "" {
		prefix = "picture_db"
	}
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
