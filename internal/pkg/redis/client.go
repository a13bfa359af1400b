// internal/pkg/redis/client.go
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端，统一连接参数。
type Client struct {
	rdb *redis.Client
}

// NewClient 创建一个新的 Redis 客户端。
func NewClient(addr string) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &Client{rdb: rdb}
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级用法的调用方使用。
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Get 读取一个 key，key 不存在时返回 ("", redis.Nil)。
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set 写入一个带过期时间的 key。
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del 删除一个 key。
func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}

// IsNil 判断错误是否为 key 不存在。
func IsNil(err error) bool {
	return err == redis.Nil
}
