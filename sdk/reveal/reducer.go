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

// Package reveal 把互動事件（點擊格子、刮除座標、拖曳碎片）歸約成揭露進度與最終連線數。
//
// 每個 Board 只有兩個狀態：Active → Completed。完成訊號在整個生命週期中恰好發出一次，
// 之後的任何輸入都是 no-op；Close 之後同樣全部忽略，並解除所有監聽者。
package reveal

import (
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/spec"
)

// Completion 完成訊號。連線類謎題帶 MatchCount（已翻開格子中的最大同圖標數）。
type Completion struct {
	Kind       spec.PuzzleKind  `json:"kind"`
	Matching   bool             `json:"matching"`
	MatchCount int              `json:"match_count"`
	Symbol     pattern.SymbolID `json:"symbol"`
}

// Step 單一輸入事件處理後的結果。
//
// Completion 只會出現在造成完成的那一步；Done 在完成後的每一步都為 true。
type Step struct {
	Progress   float64     `json:"progress"`
	Tally      Tally       `json:"tally,omitempty"`
	Revealed   []int       `json:"revealed,omitempty"`
	Changed    bool        `json:"changed"`
	Done       bool        `json:"done"`
	Completion *Completion `json:"completion,omitempty"`
}

// Board 單一謎題實例的歸約器。非併發安全：由持有它的 Session 序列化存取。
type Board interface {
	Kind() spec.PuzzleKind
	Progress() float64
	Done() bool
	// Result 完成後回傳完成訊號。
	Result() (Completion, bool)
	// OnComplete 註冊完成監聽；已完成或已關閉時不會再被呼叫。
	OnComplete(fn func(Completion))
	// Close 丟棄實例狀態，解除監聽。
	Close()
	Closed() bool
	View() View
}

// CellView 對外輸出的格子；未翻開的格子不揭露圖標。
type CellView struct {
	Position int              `json:"position"`
	Symbol   pattern.SymbolID `json:"symbol"`
	Revealed bool             `json:"revealed"`
}

// View 謎題快照（API 回應用）。
type View struct {
	Kind     spec.PuzzleKind `json:"kind"`
	Progress float64         `json:"progress"`
	Done     bool            `json:"done"`
	Cols     int             `json:"cols,omitempty"`
	Cells    []CellView      `json:"cells,omitempty"`
	Tally    Tally           `json:"tally,omitempty"`
	Pieces   []Piece         `json:"pieces,omitempty"`
	Width    int             `json:"width,omitempty"`
	Height   int             `json:"height,omitempty"`
}

func cellViews(p pattern.Pattern) []CellView {
	out := make([]CellView, len(p))
	for i, c := range p {
		out[i] = CellView{Position: c.Position, Symbol: pattern.NoSymbol, Revealed: c.Revealed}
		if c.Revealed {
			out[i].Symbol = c.Symbol
		}
	}
	return out
}

// latch 保證完成訊號只觸發一次。
type latch struct {
	done      bool
	closed    bool
	result    Completion
	listeners []func(Completion)
}

// fire 第一次呼叫回傳完成訊號並通知監聽者，之後回傳 nil。
func (l *latch) fire(c Completion) *Completion {
	if l.done || l.closed {
		return nil
	}
	l.done = true
	l.result = c
	ls := l.listeners
	l.listeners = nil
	for _, fn := range ls {
		fn(c)
	}
	return &c
}

// inert 已完成或已關閉：輸入一律忽略。
func (l *latch) inert() bool { return l.done || l.closed }

func (l *latch) Done() bool { return l.done }

func (l *latch) Closed() bool { return l.closed }

func (l *latch) Result() (Completion, bool) {
	return l.result, l.done
}

func (l *latch) OnComplete(fn func(Completion)) {
	if fn == nil || l.inert() {
		return
	}
	l.listeners = append(l.listeners, fn)
}

func (l *latch) Close() {
	l.closed = true
	l.listeners = nil
}
