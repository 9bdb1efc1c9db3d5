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
	"slices"
	"sync"
	"time"

	"github.com/zintix-labs/strikelab/sdk/money"
)

// Memory 行程內的紀錄。
type Memory struct {
	mu      sync.RWMutex
	max     int
	players map[string][]Record
	now     func() time.Time
}

func NewMemory(max int) *Memory {
	return &Memory{max: normalizeMax(max), players: make(map[string][]Record), now: time.Now}
}

func (m *Memory) Append(ctx context.Context, player string, r Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r = prepare(r, m.now())
	m.mu.Lock()
	m.players[player] = prepend(m.players[player], r, m.max)
	m.mu.Unlock()
	return r, nil
}

func (m *Memory) List(ctx context.Context, player string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.players[player]), nil
}

func (m *Memory) Clear(ctx context.Context, player string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.players, player)
	m.mu.Unlock()
	return nil
}

func (m *Memory) TotalWinnings(ctx context.Context, player string) (money.Amount, error) {
	list, err := m.List(ctx, player)
	if err != nil {
		return money.Zero, err
	}
	return Total(list), nil
}
