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
	"math"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/spec"
)

// Unassigned 尚未放入槽位。
const Unassigned = -1

// Piece 拼圖碎片，Slot 只會由 Unassigned 變成某個槽位。
type Piece struct {
	ID       int  `json:"id"`
	Slot     int  `json:"slot"`
	Rotation int  `json:"rotation"`
	Placed   bool `json:"placed"`
}

// AssemblyBoard 拼圖：所有碎片放入槽位即完成，沒有圖標與連線。
type AssemblyBoard struct {
	latch
	pieces    []Piece
	rotations []int
	taken     []bool
	snap      float64
	placed    int
}

func NewAssemblyBoard(s spec.DragSetting) *AssemblyBoard {
	b := &AssemblyBoard{
		pieces:    make([]Piece, s.Pieces),
		rotations: append([]int(nil), s.SlotRotations...),
		taken:     make([]bool, len(s.SlotRotations)),
		snap:      float64(s.SnapDistance),
	}
	for i := range b.pieces {
		b.pieces[i] = Piece{ID: i, Slot: Unassigned}
	}
	return b
}

func (b *AssemblyBoard) Kind() spec.PuzzleKind { return spec.KindDrag }

func (b *AssemblyBoard) Progress() float64 {
	if len(b.pieces) == 0 {
		return 0
	}
	return float64(b.placed) / float64(len(b.pieces)) * 100
}

// Drop 碎片放下時相對中心的位移 (dx,dy)。|dx| 與 |dy| 皆小於吸附距離時，
// 碎片放入第一個空槽位；否則彈回（no-op）。已放好的碎片再次放下也是 no-op。
func (b *AssemblyBoard) Drop(id int, dx, dy float64) (Step, error) {
	if b.inert() {
		return b.step(), nil
	}
	if id < 0 || id >= len(b.pieces) {
		return b.step(), errs.Warnf("piece %d out of range [0,%d)", id, len(b.pieces))
	}
	if b.pieces[id].Placed {
		return b.step(), nil
	}
	if !(math.Abs(dx) < b.snap && math.Abs(dy) < b.snap) {
		return b.step(), nil
	}
	slot := -1
	for i, t := range b.taken {
		if !t {
			slot = i
			break
		}
	}
	if slot < 0 {
		return b.step(), nil
	}
	b.taken[slot] = true
	b.pieces[id] = Piece{ID: id, Slot: slot, Rotation: b.rotations[slot], Placed: true}
	b.placed++

	st := b.step()
	st.Changed = true
	st.Revealed = []int{id}
	if b.placed == len(b.pieces) {
		st.Completion = b.fire(Completion{Kind: spec.KindDrag, Symbol: -1})
		st.Done = b.Done()
	}
	return st, nil
}

func (b *AssemblyBoard) step() Step {
	return Step{Progress: b.Progress(), Done: b.Done()}
}

// Pieces 回傳碎片拷貝。
func (b *AssemblyBoard) Pieces() []Piece {
	return append([]Piece(nil), b.pieces...)
}

func (b *AssemblyBoard) View() View {
	return View{Kind: spec.KindDrag, Progress: b.Progress(), Done: b.Done(), Pieces: b.Pieces()}
}
