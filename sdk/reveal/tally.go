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

package reveal

import "github.com/zintix-labs/strikelab/sdk/pattern"

// Tally 已翻開格子的圖標計數。每次翻開都由整個盤面重新計算，不做增量修補。
type Tally map[pattern.SymbolID]int

// TallyOf 計算 p 中已翻開格子的圖標數。
func TallyOf(p pattern.Pattern) Tally {
	t := make(Tally)
	for _, c := range p {
		if c.Revealed {
			t[c.Symbol]++
		}
	}
	return t
}

// Max 回傳數量最多的圖標與其數量；同數量取索引較小者。沒有翻開任何格子時回傳 (NoSymbol, 0)。
func (t Tally) Max() (pattern.SymbolID, int) {
	best, bestN := pattern.NoSymbol, 0
	for id, n := range t {
		if n > bestN || (n == bestN && n > 0 && id < best) {
			best, bestN = id, n
		}
	}
	return best, bestN
}

// Clone 回傳拷貝，避免呼叫端修改內部狀態。
func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
