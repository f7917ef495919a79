// Package cache 在 redis 中缓存每个用户的排班愿望列表。
//
// 每个用户有一个版本号，列表的 key 中包含版本号。记录发生变化时只需要把版本号加一，
// 旧的列表不会再被读到，随后由 TTL 自动清理。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dienstwunsch/backend/internal/config"
	"github.com/dienstwunsch/backend/internal/domain"
)

type ShiftRequestCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func New(rdb *redis.Client, cfg *config.Config) *ShiftRequestCache {
	return &ShiftRequestCache{
		rdb:       rdb,
		ttl:       time.Duration(cfg.Redis.ListTTL) * time.Second,
		opTimeout: time.Duration(cfg.Redis.OperationExpiration) * time.Second,
	}
}

func versionKey(ownerID string) string {
	return fmt.Sprintf("shift_requests_version_%s", ownerID)
}

func listKey(ownerID string, version int64, filter domain.ShiftRequestFilter) string {
	status := "all"
	if filter.Status != nil {
		status = string(*filter.Status)
	}

	month := "all"
	if !filter.Month.IsZero() {
		month = fmt.Sprintf("%04d-%02d", filter.Month.Year, int(filter.Month.Month))
	}

	return fmt.Sprintf("shift_requests_%s_v%d_%s_%d_%s", ownerID, version, status, filter.Limit, month)
}

func (c *ShiftRequestCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *ShiftRequestCache) version(ctx context.Context, ownerID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(ownerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// GetShiftRequests 返回缓存的列表以及读取时的版本号，ok 为 false 表示未命中。
// 未命中时应当把版本号原样传给 SetShiftRequests。
func (c *ShiftRequestCache) GetShiftRequests(ctx context.Context, ownerID string, filter domain.ShiftRequestFilter) (requests []*domain.ShiftRequest, version int64, ok bool, err error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	version, err = c.version(ctx, ownerID)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.rdb.Get(ctx, listKey(ownerID, version, filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, false, nil
		}
		return nil, version, false, err
	}

	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, version, false, err
	}

	return requests, version, true, nil
}

// SetShiftRequests 以读取时的版本号写入列表，期间发生的修改会使这份数据自然失效
func (c *ShiftRequestCache) SetShiftRequests(ctx context.Context, ownerID string, version int64, filter domain.ShiftRequestFilter, requests []*domain.ShiftRequest) error {
	data, err := json.Marshal(requests)
	if err != nil {
		return err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.rdb.Set(ctx, listKey(ownerID, version, filter), data, c.ttl).Err()
}

func (c *ShiftRequestCache) InvalidateShiftRequests(ctx context.Context, ownerID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.rdb.Incr(ctx, versionKey(ownerID)).Err()
}
