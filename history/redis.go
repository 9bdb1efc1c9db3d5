// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
)

// Redis 每位玩家一個 list：LPUSH 後 LTRIM 到上限，LRANGE 即為最新在前的順序。
type Redis struct {
	client redis.UniversalClient
	prefix string
	max    int
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, prefix string, max int) *Redis {
	if prefix == "" {
		prefix = "strikelab:history:"
	}
	return &Redis{client: client, prefix: prefix, max: normalizeMax(max), now: time.Now}
}

// OpenRedis 以 redis URL 建立 client 並 PING。
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "history: invalid redis url")
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, errs.Wrap(err, "history: ping redis")
	}
	return c, nil
}

func (s *Redis) key(player string) string { return s.prefix + player }

func (s *Redis) Append(ctx context.Context, player string, r Record) (Record, error) {
	r = prepare(r, s.now())
	raw, err := json.Marshal(r)
	if err != nil {
		return Record{}, errs.Wrap(err, "history: encode record")
	}
	key := s.key(player)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, raw)
		p.LTrim(ctx, key, 0, int64(s.max-1))
		return nil
	})
	if err != nil {
		return Record{}, errs.Wrap(err, "history: redis append")
	}
	return r, nil
}

func (s *Redis) List(ctx context.Context, player string) ([]Record, error) {
	vals, err := s.client.LRange(ctx, s.key(player), 0, int64(s.max-1)).Result()
	if err != nil {
		return nil, errs.Wrap(err, "history: redis list")
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		var r Record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Redis) Clear(ctx context.Context, player string) error {
	if err := s.client.Del(ctx, s.key(player)).Err(); err != nil {
		return errs.Wrap(err, "history: redis clear")
	}
	return nil
}

func (s *Redis) TotalWinnings(ctx context.Context, player string) (money.Amount, error) {
	list, err := s.List(ctx, player)
	if err != nil {
		return money.Zero, err
	}
	return Total(list), nil
}
