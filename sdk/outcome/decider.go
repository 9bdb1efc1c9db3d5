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

// Package outcome 在購票當下決定一張票是否中獎。
//
// 決定只發生一次：Decision 是不可變的值，由流程控制器持有並往下傳遞，
// 謎題元件只讀取 IsWinner，永遠不重新抽樣。
package outcome

import (
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/spec"
)

// Decision 一張票的中獎判定。
type Decision struct {
	Tier     spec.Tier `json:"tier"`
	IsWinner bool      `json:"is_winner"`
}

// Decider 依賠率表抽樣。
type Decider struct {
	odds *spec.OddsTable
	core *core.Core
}

func NewDecider(odds *spec.OddsTable, c *core.Core) *Decider {
	return &Decider{odds: odds, core: c}
}

// Decide 抽一次 [0,1) 樣本，sample < winProbability 即中獎。
// 未知票種回傳 KindConfiguration 錯誤，且不消耗亂數。
func (d *Decider) Decide(tier spec.Tier) (Decision, error) {
	ts, err := d.odds.Lookup(tier)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Tier: ts.Tier, IsWinner: d.core.Next() < ts.WinProbability}, nil
}

// Forced 建立固定結果的 Decision（重播、測試、鏈上結果回填）。
func Forced(tier spec.Tier, isWinner bool) Decision {
	return Decision{Tier: tier, IsWinner: isWinner}
}
