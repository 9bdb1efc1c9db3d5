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

package pattern

// SymbolID 圖標在字母表中的索引。
type SymbolID int

// NoSymbol 哨兵值。
const NoSymbol SymbolID = -1

// Cell 單一格子。Revealed 只會由 false 翻成 true。
type Cell struct {
	Position int      `json:"position"`
	Symbol   SymbolID `json:"symbol"`
	Revealed bool     `json:"revealed"`
}

// Pattern 謎題的完整盤面（含未翻開的格子）。
type Pattern []Cell

// Counts 回傳每個圖標在整個盤面上的數量（不論是否翻開）。
func (p Pattern) Counts(alphabet int) []int {
	out := make([]int, alphabet)
	for _, c := range p {
		if c.Symbol >= 0 && int(c.Symbol) < alphabet {
			out[c.Symbol]++
		}
	}
	return out
}

// Max 回傳數量最多的圖標與其數量；同數量取索引較小者。空盤面回傳 (NoSymbol, 0)。
func (p Pattern) Max(alphabet int) (SymbolID, int) {
	best, bestN := NoSymbol, 0
	for id, n := range p.Counts(alphabet) {
		if n > bestN {
			best, bestN = SymbolID(id), n
		}
	}
	return best, bestN
}

// Symbols 回傳依位置排列的圖標。
func (p Pattern) Symbols() []SymbolID {
	out := make([]SymbolID, len(p))
	for i, c := range p {
		out[i] = c.Symbol
	}
	return out
}

// Clone 深拷貝。
func (p Pattern) Clone() Pattern {
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// FromSymbols 以既有圖標序列建立盤面（全部未翻開），用於重播與測試。
func FromSymbols(symbols []SymbolID) Pattern {
	out := make(Pattern, len(symbols))
	for i, s := range symbols {
		out[i] = Cell{Position: i, Symbol: s}
	}
	return out
}
