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
	"github.com/zintix-labs/strikelab/spec"
)

// SwipeBoard 滑動揭露：只有塗層，沒有圖標；刮除超過門檻即完成。
type SwipeBoard struct {
	latch
	cov           *Coverage
	radius        int
	completeAbove float64
	w, h          int
}

func NewSwipeBoard(s spec.CanvasSetting) *SwipeBoard {
	return &SwipeBoard{
		cov:           NewCoverage(s.Width, s.Height),
		radius:        s.BrushRadius,
		completeAbove: s.CompleteAbove,
		w:             s.Width,
		h:             s.Height,
	}
}

func (b *SwipeBoard) Kind() spec.PuzzleKind { return spec.KindSwipe }

func (b *SwipeBoard) Progress() float64 { return b.cov.Progress() }

// Swipe 處理單一取樣點。
func (b *SwipeBoard) Swipe(x, y float64) Step {
	if b.inert() {
		return b.step()
	}
	if b.cov.Erase(x, y, b.radius) == 0 {
		return b.step()
	}
	st := b.step()
	st.Changed = true
	if b.cov.Progress() > b.completeAbove {
		st.Completion = b.fire(Completion{Kind: spec.KindSwipe, Symbol: -1})
		st.Done = b.Done()
	}
	return st
}

// Stroke 依序處理一串取樣點。
func (b *SwipeBoard) Stroke(points []Point) Step {
	return mergeStroke(b.step(), points, b.Swipe)
}

func (b *SwipeBoard) step() Step {
	return Step{Progress: b.cov.Progress(), Done: b.Done()}
}

func (b *SwipeBoard) View() View {
	return View{Kind: spec.KindSwipe, Progress: b.cov.Progress(), Done: b.Done(), Width: b.w, Height: b.h}
}
