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

// Package chain 定義錢包/鏈上合約協作者的介面，並提供記憶體內的模擬鏈。
//
// 開獎核心目前自行模擬結果，不依賴鏈上事件；介面保留給日後改接可驗證亂數來源。
package chain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/spec"
)

// Purchase 購票交易結果。
type Purchase struct {
	TicketID string          `json:"ticket_id"`
	TxHash   string          `json:"tx_hash"`
	Tier     spec.Tier       `json:"tier"`
	PriceETH decimal.Decimal `json:"price_eth"`
}

// Receipt 開刮（請求亂數）交易收據。
type Receipt struct {
	TicketID       string          `json:"ticket_id"`
	TxHash         string          `json:"tx_hash"`
	SequenceNumber uint64          `json:"sequence_number"`
	FeeETH         decimal.Decimal `json:"fee_eth"`
}

// TicketRecord 鏈上票券紀錄。
type TicketRecord struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Tier      spec.Tier `json:"tier"`
	Claimed   bool      `json:"claimed"`
	Timestamp time.Time `json:"timestamp"`
}

// EventKind 合約事件種類。
type EventKind string

const (
	EventTicketPurchased EventKind = "TicketPurchased"
	EventTicketStruck    EventKind = "TicketStruck"
	EventPrizeWon        EventKind = "PrizeWon"
	EventPrizeLost       EventKind = "PrizeLost"
)

// Event 合約事件。Amount 只在 PrizeWon 時有值。
type Event struct {
	Kind           EventKind        `json:"kind"`
	TicketID       string           `json:"ticket_id"`
	Player         string           `json:"player"`
	Tier           spec.Tier        `json:"tier,omitempty"`
	PriceETH       *decimal.Decimal `json:"price_eth,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	SequenceNumber uint64           `json:"sequence_number,omitempty"`
}

// Wallet 錢包/合約協作者。所有呼叫都可能失敗或逾時。
type Wallet interface {
	BuyTicket(ctx context.Context, owner string, tier spec.Tier) (Purchase, error)
	StrikeTicket(ctx context.Context, ticketID string, randomness [32]byte) (Receipt, error)
	GetTicket(ctx context.Context, ticketID string) (TicketRecord, error)
	Subscribe() (<-chan Event, func())
}

// Settler 由亂數回呼結算票券（模擬鏈才有；真實合約由 entropy callback 觸發）。
type Settler interface {
	Settle(ctx context.Context, ticketID string, amount *decimal.Decimal) error
}
