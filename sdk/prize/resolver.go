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

// Package prize 把完成結果（連線數，或非連線謎題的隨機抽選）換算成獎金。
package prize

import (
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/sdk/outcome"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/spec"
)

// PrizeResolver 流程控制只依賴這個介面；鏈上來源的實作可直接替換。
type PrizeResolver interface {
	ForCompletion(d outcome.Decision, c reveal.Completion, rng *core.Core) (*money.Amount, error)
}

// Resolver 依賠率表換算獎金。nil 代表沒有獎金。
type Resolver struct {
	odds *spec.OddsTable
}

func NewResolver(odds *spec.OddsTable) *Resolver {
	return &Resolver{odds: odds}
}

// Resolve 連線數 < 3 沒有獎金（即使票券被判定中獎）；否則取 min(n,5) 對應的獎額。
func (r *Resolver) Resolve(tier spec.Tier, matchCount int) (*money.Amount, error) {
	ts, err := r.odds.Lookup(tier)
	if err != nil {
		return nil, err
	}
	if matchCount < spec.MinMatch {
		return nil, nil
	}
	counts := spec.MatchCounts
	for i := len(counts) - 1; i >= 0; i-- {
		if matchCount >= counts[i] {
			a, ok := ts.PrizeFor(counts[i])
			if !ok {
				return nil, nil
			}
			return &a, nil
		}
	}
	return nil, nil
}

// ResolveAssembly 沒有連線概念的謎題：中獎票從該票種的獎額中等機率抽一個，未中獎回傳 nil。
// 未中獎時不消耗亂數。
func (r *Resolver) ResolveAssembly(tier spec.Tier, isWinner bool, rng *core.Core) (*money.Amount, error) {
	ts, err := r.odds.Lookup(tier)
	if err != nil {
		return nil, err
	}
	if !isWinner {
		return nil, nil
	}
	list := ts.PrizeList()
	if len(list) == 0 {
		return nil, nil
	}
	a := list[rng.IntN(len(list))]
	return &a, nil
}

// ForCompletion 依完成訊號的謎題種類分派。連線類同時需要中獎判定與實際連線 ≥ 3。
func (r *Resolver) ForCompletion(d outcome.Decision, c reveal.Completion, rng *core.Core) (*money.Amount, error) {
	if !c.Kind.Matching() {
		return r.ResolveAssembly(d.Tier, d.IsWinner, rng)
	}
	if !d.IsWinner {
		if _, err := r.odds.Lookup(d.Tier); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return r.Resolve(d.Tier, c.MatchCount)
}
