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

import (
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/spec"
)

// TileBoard 翻牌謎題：一次點擊翻開一格，全部翻開即完成。
type TileBoard struct {
	latch
	cells    pattern.Pattern
	cols     int
	revealed int
	tally    Tally
}

// NewTileBoard 以盤面建立翻牌謎題；盤面會被拷貝。
func NewTileBoard(p pattern.Pattern, cols int) *TileBoard {
	return &TileBoard{
		cells: p.Clone(),
		cols:  cols,
		tally: make(Tally),
	}
}

func (b *TileBoard) Kind() spec.PuzzleKind { return spec.KindClick }

// Progress = 已翻開 / 總格數 × 100。
func (b *TileBoard) Progress() float64 {
	if len(b.cells) == 0 {
		return 0
	}
	return float64(b.revealed) / float64(len(b.cells)) * 100
}

// Reveal 翻開 index。重複翻開、完成後、關閉後皆為 no-op；越界回傳 Warn。
func (b *TileBoard) Reveal(index int) (Step, error) {
	// 完成或關閉後的輸入（含越界）一律靜默忽略
	if b.inert() {
		return b.step(), nil
	}
	if index < 0 || index >= len(b.cells) {
		return b.step(), errs.Warnf("tile index %d out of range [0,%d)", index, len(b.cells))
	}
	if b.cells[index].Revealed {
		return b.step(), nil
	}
	b.cells[index].Revealed = true
	b.revealed++
	b.tally = TallyOf(b.cells)

	st := b.step()
	st.Changed = true
	st.Revealed = []int{index}
	if b.revealed == len(b.cells) {
		sym, n := b.tally.Max()
		st.Completion = b.fire(Completion{Kind: spec.KindClick, Matching: true, MatchCount: n, Symbol: sym})
		st.Done = b.Done()
	}
	return st, nil
}

func (b *TileBoard) step() Step {
	return Step{Progress: b.Progress(), Tally: b.tally.Clone(), Done: b.Done()}
}

// Pattern 回傳盤面拷貝（含未翻開的圖標，僅供伺服端使用）。
func (b *TileBoard) Pattern() pattern.Pattern { return b.cells.Clone() }

func (b *TileBoard) View() View {
	return View{
		Kind:     spec.KindClick,
		Progress: b.Progress(),
		Done:     b.Done(),
		Cols:     b.cols,
		Cells:    cellViews(b.cells),
		Tally:    b.tally.Clone(),
	}
}
