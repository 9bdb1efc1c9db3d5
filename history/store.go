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

// Package history 遊戲紀錄的持久化介面與各種後端實作。
//
// 每位玩家各自一份紀錄，最新的在前，最多保留 MaxRecords 筆（預設 50）。
// 核心邏輯只透過 Store 存取，不直接碰儲存體。
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/spec"
)

// DefaultMaxRecords 每位玩家保留的紀錄上限。
const DefaultMaxRecords = 50

// Record 一局遊戲的紀錄。PrizeAmount 為 nil 代表沒有獎金。
type Record struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Tier        spec.Tier       `json:"tier"`
	PuzzleType  spec.PuzzleKind `json:"puzzle_type"`
	IsWinner    bool            `json:"is_winner"`
	PrizeAmount *string         `json:"prize_amount"`
	MatchCount  int             `json:"match_count"`
	TicketID    string          `json:"ticket_id,omitempty"`
}

// Store 遊戲紀錄儲存體。
type Store interface {
	// Append 寫入一筆紀錄並回傳補齊 ID 與時間後的紀錄；超過上限的舊紀錄會被移除。
	Append(ctx context.Context, player string, r Record) (Record, error)
	// List 最新的在前。
	List(ctx context.Context, player string) ([]Record, error)
	Clear(ctx context.Context, player string) error
	// TotalWinnings 所有中獎紀錄的獎金總和。
	TotalWinnings(ctx context.Context, player string) (money.Amount, error)
}

// prepare 補齊 ID 與時間。
func prepare(r Record, now time.Time) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	return r
}

// prepend 把 r 放在最前面並截斷到 max 筆。
func prepend(list []Record, r Record, max int) []Record {
	out := make([]Record, 0, min(len(list)+1, max))
	out = append(out, r)
	for _, x := range list {
		if len(out) >= max {
			break
		}
		out = append(out, x)
	}
	return out
}

// Total 加總中獎紀錄的獎金；無法解析的金額略過。
func Total(records []Record) money.Amount {
	sum := money.Zero
	for _, r := range records {
		if !r.IsWinner || r.PrizeAmount == nil {
			continue
		}
		a, err := money.Parse(*r.PrizeAmount)
		if err != nil {
			continue
		}
		sum = sum.Add(a)
	}
	return sum
}

// Prize 由金額建立 PrizeAmount 欄位值。
func Prize(a *money.Amount) *string {
	if a == nil {
		return nil
	}
	s := a.String()
	return &s
}

func normalizeMax(max int) int {
	if max <= 0 {
		return DefaultMaxRecords
	}
	return max
}
