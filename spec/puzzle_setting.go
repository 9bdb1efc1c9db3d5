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

package spec

import (
	"slices"

	"github.com/zintix-labs/strikelab/errs"
)

// PuzzleKind 謎題種類。
type PuzzleKind string

const (
	KindClick   PuzzleKind = "click"   // 翻牌：點擊格子
	KindScratch PuzzleKind = "scratch" // 刮刮樂：連續座標刮除塗層
	KindDrag    PuzzleKind = "drag"    // 拼圖：拖曳碎片到槽位
	KindSwipe   PuzzleKind = "swipe"   // 滑動揭露：只有塗層，沒有圖標
)

// Matching 回報該種類是否以圖標連線決定獎金。
func (k PuzzleKind) Matching() bool {
	return k == KindClick || k == KindScratch
}

func (k PuzzleKind) Valid() bool {
	switch k {
	case KindClick, KindScratch, KindDrag, KindSwipe:
		return true
	}
	return false
}

// KindWeight 謎題種類權重，購票時以 sampler.Picker 抽樣。
type KindWeight struct {
	Kind   PuzzleKind `yaml:"kind"   json:"kind"`
	Weight int        `yaml:"weight" json:"weight"`
}

// GridSetting 格狀謎題尺寸。
type GridSetting struct {
	Cols int `yaml:"cols" json:"cols"`
	Rows int `yaml:"rows" json:"rows"`
}

func (g GridSetting) Size() int { return g.Cols * g.Rows }

func (g GridSetting) valid(name string) error {
	if g.Cols <= 0 || g.Rows <= 0 {
		return errs.Configurationf("%s: invalid grid %dx%d", name, g.Cols, g.Rows)
	}
	return nil
}

// CanvasSetting 可刮除塗層的畫布。
//
// CompleteAbove 為完成門檻（百分比，嚴格大於才完成）。
type CanvasSetting struct {
	Width         int     `yaml:"width"          json:"width"`
	Height        int     `yaml:"height"         json:"height"`
	BrushRadius   int     `yaml:"brush_radius"   json:"brush_radius"`
	CompleteAbove float64 `yaml:"complete_above" json:"complete_above"`
}

func (c CanvasSetting) valid(name string) error {
	if c.Width <= 0 || c.Height <= 0 {
		return errs.Configurationf("%s: invalid canvas %dx%d", name, c.Width, c.Height)
	}
	if c.BrushRadius <= 0 {
		return errs.Configurationf("%s: brush_radius must > 0", name)
	}
	if c.CompleteAbove <= 0 || c.CompleteAbove >= 100 {
		return errs.Configurationf("%s: complete_above must be in (0,100)", name)
	}
	return nil
}

// ScratchSetting 刮刮樂：畫布覆蓋在 Grid 上，每格面積刮除比例達 CellRevealRatio 即翻開。
type ScratchSetting struct {
	Grid            GridSetting   `yaml:"grid"              json:"grid"`
	Canvas          CanvasSetting `yaml:"canvas"            json:"canvas"`
	CellRevealRatio float64       `yaml:"cell_reveal_ratio" json:"cell_reveal_ratio"`
}

// DragSetting 拼圖。
//
// SlotRotations 依序為各槽位角度；碎片放下時若離中心 |dx|,|dy| 皆小於 SnapDistance 即吸附到第一個空槽位。
type DragSetting struct {
	Pieces        int   `yaml:"pieces"         json:"pieces"`
	SlotRotations []int `yaml:"slot_rotations" json:"slot_rotations"`
	SnapDistance  int   `yaml:"snap_distance"  json:"snap_distance"`
}

// PuzzleSetting 所有謎題種類的幾何設定與抽樣權重。
type PuzzleSetting struct {
	Weights []KindWeight   `yaml:"weights" json:"weights"`
	Click   GridSetting    `yaml:"click"   json:"click"`
	Scratch ScratchSetting `yaml:"scratch" json:"scratch"`
	Swipe   CanvasSetting  `yaml:"swipe"   json:"swipe"`
	Drag    DragSetting    `yaml:"drag"    json:"drag"`
}

func (ps *PuzzleSetting) init() error {
	if len(ps.Weights) == 0 {
		return errs.Configurationf("puzzles: empty weights")
	}
	seen := make([]PuzzleKind, 0, len(ps.Weights))
	total := 0
	for _, w := range ps.Weights {
		if !w.Kind.Valid() {
			return errs.Configurationf("puzzles: unknown kind %q", w.Kind)
		}
		if slices.Contains(seen, w.Kind) {
			return errs.Configurationf("puzzles: duplicate kind %q", w.Kind)
		}
		if w.Weight < 0 {
			return errs.Configurationf("puzzles: negative weight for %q", w.Kind)
		}
		seen = append(seen, w.Kind)
		total += w.Weight
	}
	if total == 0 {
		return errs.Configurationf("puzzles: all weights are zero")
	}
	if err := ps.Click.valid("click"); err != nil {
		return err
	}
	if err := ps.Scratch.Grid.valid("scratch"); err != nil {
		return err
	}
	if err := ps.Scratch.Canvas.valid("scratch"); err != nil {
		return err
	}
	if ps.Scratch.Canvas.Width < ps.Scratch.Grid.Cols || ps.Scratch.Canvas.Height < ps.Scratch.Grid.Rows {
		return errs.Configurationf("scratch: canvas smaller than grid")
	}
	if ps.Scratch.CellRevealRatio <= 0 || ps.Scratch.CellRevealRatio > 1 {
		return errs.Configurationf("scratch: cell_reveal_ratio must be in (0,1]")
	}
	if err := ps.Swipe.valid("swipe"); err != nil {
		return err
	}
	if ps.Drag.Pieces <= 0 {
		return errs.Configurationf("drag: pieces must > 0")
	}
	if len(ps.Drag.SlotRotations) < ps.Drag.Pieces {
		return errs.Configurationf("drag: %d slots for %d pieces", len(ps.Drag.SlotRotations), ps.Drag.Pieces)
	}
	if ps.Drag.SnapDistance <= 0 {
		return errs.Configurationf("drag: snap_distance must > 0")
	}
	return nil
}

// GridSize 回傳需要盤面的謎題格數；非連線種類回傳 0。
func (ps *PuzzleSetting) GridSize(k PuzzleKind) int {
	switch k {
	case KindClick:
		return ps.Click.Size()
	case KindScratch:
		return ps.Scratch.Grid.Size()
	}
	return 0
}

// KindList 與 WeightList 依設定順序回傳（供 sampler.NewPicker 建表）。
func (ps *PuzzleSetting) KindList() []PuzzleKind {
	out := make([]PuzzleKind, len(ps.Weights))
	for i, w := range ps.Weights {
		out[i] = w.Kind
	}
	return out
}

func (ps *PuzzleSetting) WeightList() []int {
	out := make([]int, len(ps.Weights))
	for i, w := range ps.Weights {
		out[i] = w.Weight
	}
	return out
}
