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

package flow

import (
	"time"

	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/spec"
)

// Stage 流程階段。
type Stage string

const (
	StagePurchase Stage = "purchase"
	StagePuzzle   Stage = "puzzle"
	StageResults  Stage = "results"
)

// State 流程快照。PlayAgain 之後必須與新建的 Controller 完全相同。
//
// ResultsAt = CompletedAt + 完成停頓，只給前端決定何時切到結果頁，流程本身不等待。
type State struct {
	Stage       Stage           `json:"stage"`
	Pending     bool            `json:"pending"`
	Tier        spec.Tier       `json:"tier,omitempty"`
	IsWinner    bool            `json:"is_winner"`
	PuzzleType  spec.PuzzleKind `json:"puzzle_type,omitempty"`
	Ticket      *chain.Purchase `json:"ticket,omitempty"`
	Puzzle      *reveal.View    `json:"puzzle,omitempty"`
	MatchCount  int             `json:"match_count"`
	PrizeAmount *money.Amount   `json:"prize_amount"`
	CompletedAt time.Time       `json:"completed_at,omitzero"`
	ResultsAt   time.Time       `json:"results_at,omitzero"`
	StrikeTx    string          `json:"strike_tx,omitempty"`
	Record      *history.Record `json:"record,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
}

// EventKind 流程事件種類。
type EventKind string

const (
	EventPurchased      EventKind = "purchased"
	EventCompleted      EventKind = "completed"
	EventHistoryChanged EventKind = "history_changed"
	EventReset          EventKind = "reset"
)

// Event 由 Controller 發布，歷史紀錄畫面等訂閱者透過 Subject 接收。
type Event struct {
	Kind    EventKind       `json:"kind"`
	Session string          `json:"session"`
	Player  string          `json:"player,omitempty"`
	State   State           `json:"state"`
	Record  *history.Record `json:"record,omitempty"`
}
