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
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/spec"
)

// Point 指標取樣座標（畫布座標系，左上為原點）。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScratchBoard 刮刮樂：塗層覆蓋在格子上，刮開的面積決定哪些格子翻開。
//
// 一格的刮除比例達 cellRatio 即翻開（只看累積面積，與事件次數無關）；
// 整張塗層刮除超過 completeAbove% 即完成，回報已翻開格子中的最大同圖標數。
type ScratchBoard struct {
	latch
	cells         pattern.Pattern
	cols          int
	cov           *Coverage
	radius        int
	cellRatio     float64
	completeAbove float64
	tally         Tally
	w, h          int
}

// NewScratchBoard 以盤面與設定建立刮刮樂；盤面會被拷貝。
func NewScratchBoard(p pattern.Pattern, s spec.ScratchSetting) *ScratchBoard {
	return &ScratchBoard{
		cells:         p.Clone(),
		cols:          s.Grid.Cols,
		cov:           NewGridCoverage(s.Canvas.Width, s.Canvas.Height, s.Grid.Cols, s.Grid.Rows),
		radius:        s.Canvas.BrushRadius,
		cellRatio:     s.CellRevealRatio,
		completeAbove: s.Canvas.CompleteAbove,
		tally:         make(Tally),
		w:             s.Canvas.Width,
		h:             s.Canvas.Height,
	}
}

func (b *ScratchBoard) Kind() spec.PuzzleKind { return spec.KindScratch }

func (b *ScratchBoard) Progress() float64 { return b.cov.Progress() }

// Scratch 處理單一取樣點。
func (b *ScratchBoard) Scratch(x, y float64) Step {
	if b.inert() {
		return b.step()
	}
	added := b.cov.Erase(x, y, b.radius)
	st := b.step()
	if added == 0 {
		return st
	}
	st.Changed = true

	var newly []int
	for i := range b.cells {
		if b.cells[i].Revealed {
			continue
		}
		if b.cov.CellRatio(i) >= b.cellRatio {
			b.cells[i].Revealed = true
			newly = append(newly, i)
		}
	}
	if len(newly) > 0 {
		b.tally = TallyOf(b.cells)
		st.Tally = b.tally.Clone()
		st.Revealed = newly
	}

	if b.cov.Progress() > b.completeAbove {
		sym, n := b.tally.Max()
		st.Completion = b.fire(Completion{Kind: spec.KindScratch, Matching: true, MatchCount: n, Symbol: sym})
		st.Done = b.Done()
	}
	return st
}

// Stroke 依序處理一串取樣點並合併結果；完成之後的點被忽略。
func (b *ScratchBoard) Stroke(points []Point) Step {
	return mergeStroke(b.step(), points, b.Scratch)
}

func (b *ScratchBoard) step() Step {
	return Step{Progress: b.cov.Progress(), Tally: b.tally.Clone(), Done: b.Done()}
}

// Pattern 回傳盤面拷貝（僅供伺服端使用）。
func (b *ScratchBoard) Pattern() pattern.Pattern { return b.cells.Clone() }

// Coverage 回傳塗層（唯讀使用）。
func (b *ScratchBoard) Coverage() *Coverage { return b.cov }

func (b *ScratchBoard) View() View {
	return View{
		Kind:     spec.KindScratch,
		Progress: b.cov.Progress(),
		Done:     b.Done(),
		Cols:     b.cols,
		Cells:    cellViews(b.cells),
		Tally:    b.tally.Clone(),
		Width:    b.w,
		Height:   b.h,
	}
}

// mergeStroke 逐點套用 fn，合併翻開格子與完成訊號。
func mergeStroke(init Step, points []Point, fn func(x, y float64) Step) Step {
	out := init
	for _, p := range points {
		st := fn(p.X, p.Y)
		out.Progress = st.Progress
		out.Tally = st.Tally
		out.Done = st.Done
		out.Changed = out.Changed || st.Changed
		out.Revealed = append(out.Revealed, st.Revealed...)
		if st.Completion != nil {
			out.Completion = st.Completion
		}
		if st.Done {
			break
		}
	}
	return out
}
