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

// Package pattern 依中獎判定合成盤面。
//
// 中獎盤面：恰好一個圖標出現 3~5 次，其餘圖標皆不超過 2 次。
// 未中獎盤面：所有圖標皆不超過 2 次。
// 兩條路徑都是單次掃描 O(gridSize)，不做事後拒絕重抽。
package pattern

import (
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/spec"
)

// maxPerSymbol 非中獎圖標的上限（MinMatch - 1）。
const maxPerSymbol = spec.MinMatch - 1

// Synthesizer 保存合成所需的亂數核心與重用緩衝。非併發安全，每個 Session 各持一個。
type Synthesizer struct {
	core     *core.Core
	alphabet int
	// 重用緩衝，避免每張票重複配置
	positions []int
	counts    []int
	cand      []int
}

// NewSynthesizer alphabet 為字母表大小。
func NewSynthesizer(c *core.Core, alphabet int) *Synthesizer {
	return &Synthesizer{
		core:     c,
		alphabet: alphabet,
		counts:   make([]int, alphabet),
		cand:     make([]int, 0, alphabet),
	}
}

// Alphabet 字母表大小。
func (s *Synthesizer) Alphabet() int { return s.alphabet }

// Synthesize 依 isWinner 選擇路徑。
func (s *Synthesizer) Synthesize(isWinner bool, gridSize int) (Pattern, error) {
	if !isWinner {
		return s.SynthesizeLoser(gridSize)
	}
	if gridSize < spec.MinMatch {
		return nil, errs.InvalidPatternf("grid size %d cannot hold %d matches", gridSize, spec.MinMatch)
	}
	if s.alphabet < 1 {
		return nil, errs.Configurationf("empty symbol alphabet")
	}
	// 先決定中獎圖標，再於 {3,4,5}∩[..gridSize] 中抽目標連線數
	win := SymbolID(s.core.IntN(s.alphabet))
	targets := make([]int, 0, len(spec.MatchCounts))
	for _, n := range spec.MatchCounts {
		if n <= gridSize {
			targets = append(targets, n)
		}
	}
	target := s.core.Pick(targets)
	return s.winner(gridSize, target, win)
}

// SynthesizeWinner 以指定目標連線數合成中獎盤面，中獎圖標隨機。
//
// 前置條件：3 <= target <= gridSize，否則回傳 KindInvalidPattern 錯誤；
// 呼叫端應先以 min(requested, gridSize) 夾住。
func (s *Synthesizer) SynthesizeWinner(gridSize, target int) (Pattern, error) {
	if s.alphabet < 1 {
		return nil, errs.Configurationf("empty symbol alphabet")
	}
	if err := s.checkTarget(gridSize, target); err != nil {
		return nil, err
	}
	win := SymbolID(s.core.IntN(s.alphabet))
	return s.winner(gridSize, target, win)
}

// SynthesizeLoser 每格從「目前數量 < 2」的圖標中均勻抽一個。
func (s *Synthesizer) SynthesizeLoser(gridSize int) (Pattern, error) {
	if gridSize <= 0 {
		return nil, errs.InvalidPatternf("grid size must > 0, got %d", gridSize)
	}
	if s.alphabet*maxPerSymbol < gridSize {
		return nil, errs.Configurationf("%d symbols cannot fill %d cells without a match", s.alphabet, gridSize)
	}
	s.resetCounts()
	out := make(Pattern, gridSize)
	for i := range out {
		sym := s.pickCapped(NoSymbol)
		out[i] = Cell{Position: i, Symbol: sym}
	}
	return out, nil
}

func (s *Synthesizer) checkTarget(gridSize, target int) error {
	if target < spec.MinMatch {
		return errs.InvalidPatternf("target match count %d below %d", target, spec.MinMatch)
	}
	if target > gridSize {
		return errs.InvalidPatternf("target match count %d exceeds grid size %d", target, gridSize)
	}
	return nil
}

func (s *Synthesizer) winner(gridSize, target int, win SymbolID) (Pattern, error) {
	if err := s.checkTarget(gridSize, target); err != nil {
		return nil, err
	}
	if (s.alphabet-1)*maxPerSymbol < gridSize-target {
		return nil, errs.Configurationf("%d symbols cannot fill a winner grid of %d cells", s.alphabet, gridSize)
	}

	// 洗牌所有位置，取前 target 個放中獎圖標
	s.positions = s.positions[:0]
	for i := 0; i < gridSize; i++ {
		s.positions = append(s.positions, i)
	}
	s.core.ShuffleInts(s.positions)

	out := make(Pattern, gridSize)
	for i := range out {
		out[i] = Cell{Position: i, Symbol: NoSymbol}
	}
	for _, pos := range s.positions[:target] {
		out[pos].Symbol = win
	}

	// 其餘格子排除中獎圖標，且每個圖標最多 2 次，避免意外多出一組連線
	s.resetCounts()
	for i := range out {
		if out[i].Symbol != NoSymbol {
			continue
		}
		out[i].Symbol = s.pickCapped(win)
	}
	return out, nil
}

// pickCapped 從 count < maxPerSymbol 且不等於 exclude 的圖標中均勻抽一個並累計。
// 呼叫前已檢查容量，候選集合不會為空。
func (s *Synthesizer) pickCapped(exclude SymbolID) SymbolID {
	s.cand = s.cand[:0]
	for id := 0; id < s.alphabet; id++ {
		if SymbolID(id) == exclude || s.counts[id] >= maxPerSymbol {
			continue
		}
		s.cand = append(s.cand, id)
	}
	id := s.core.Pick(s.cand)
	s.counts[id]++
	return SymbolID(id)
}

func (s *Synthesizer) resetCounts() {
	for i := range s.counts {
		s.counts[i] = 0
	}
}
