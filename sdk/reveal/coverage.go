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

import "math"

// Coverage 是塗層的刮除點陣圖。
//
// 每個像素只會由「未刮」變成「已刮」，erased 計數與每格計數都在 Erase 時增量累加，
// 結果與重新掃描整張點陣圖相同，但不需讀回畫面像素。
type Coverage struct {
	w, h   int
	bits   []uint64
	erased int

	// 格狀分區（可選）
	cols, rows int
	cellArea   []int
	cellErased []int
}

// NewCoverage 建立 w×h 的塗層。
func NewCoverage(w, h int) *Coverage {
	return NewGridCoverage(w, h, 1, 1)
}

// NewGridCoverage 建立 w×h 的塗層，並以 cols×rows 分區統計每格刮除量。
func NewGridCoverage(w, h, cols, rows int) *Coverage {
	c := &Coverage{
		w:          w,
		h:          h,
		bits:       make([]uint64, (w*h+63)/64),
		cols:       max(cols, 1),
		rows:       max(rows, 1),
		cellArea:   make([]int, max(cols, 1)*max(rows, 1)),
		cellErased: make([]int, max(cols, 1)*max(rows, 1)),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.cellArea[c.cellOf(x, y)]++
		}
	}
	return c
}

func (c *Coverage) cellOf(x, y int) int {
	return (y*c.rows/c.h)*c.cols + x*c.cols/c.w
}

// Erase 以 (cx,cy) 為圓心、r 為半徑刮除；像素中心落在圓內即算刮除。
// 回傳本次新刮除的像素數。
func (c *Coverage) Erase(cx, cy float64, r int) int {
	if r <= 0 || math.IsNaN(cx) || math.IsNaN(cy) {
		return 0
	}
	rf := float64(r)
	x0 := max(int(math.Floor(cx-rf)), 0)
	x1 := min(int(math.Ceil(cx+rf)), c.w-1)
	y0 := max(int(math.Floor(cy-rf)), 0)
	y1 := min(int(math.Ceil(cy+rf)), c.h-1)
	r2 := rf * rf

	added := 0
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := y*c.w + x
			word, bit := i>>6, uint64(1)<<(i&63)
			if c.bits[word]&bit != 0 {
				continue
			}
			c.bits[word] |= bit
			c.erased++
			c.cellErased[c.cellOf(x, y)]++
			added++
		}
	}
	return added
}

// Erased 已刮除像素數。
func (c *Coverage) Erased() int { return c.erased }

// Total 總像素數。
func (c *Coverage) Total() int { return c.w * c.h }

// Progress 已刮除比例 × 100。
func (c *Coverage) Progress() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.erased) / float64(c.Total()) * 100
}

// CellRatio 第 i 格的刮除比例（0~1）。
func (c *Coverage) CellRatio(i int) float64 {
	if i < 0 || i >= len(c.cellArea) || c.cellArea[i] == 0 {
		return 0
	}
	return float64(c.cellErased[i]) / float64(c.cellArea[i])
}

// IsErased 回報像素 (x,y) 是否已刮除。
func (c *Coverage) IsErased(x, y int) bool {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return false
	}
	i := y*c.w + x
	return c.bits[i>>6]&(uint64(1)<<(i&63)) != 0
}
