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
)

// Raster 以 step 為間距逐列掃過 w×h 畫布，回傳格點中心座標。
func Raster(w, h, step int) []Point {
	if w <= 0 || h <= 0 {
		return nil
	}
	if step <= 0 {
		step = 1
	}
	half := float64(step) / 2
	pts := make([]Point, 0, (w/step+1)*(h/step+1))
	for y := half; y < float64(h); y += float64(step) {
		for x := half; x < float64(w); x += float64(step) {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

// AutoPlay 以固定策略把 Board 推到完成：翻牌依序翻開，刮除類逐列掃過，拼圖原地放下。
//
// 模擬器使用；已完成的 Board 直接回傳結果。
func AutoPlay(b Board) (Completion, error) {
	if c, ok := b.Result(); ok {
		return c, nil
	}
	switch v := b.(type) {
	case *TileBoard:
		for i := 0; i < len(v.cells) && !v.Done(); i++ {
			if _, err := v.Reveal(i); err != nil {
				return Completion{}, err
			}
		}
	case *ScratchBoard:
		v.Stroke(Raster(v.w, v.h, v.radius))
	case *SwipeBoard:
		v.Stroke(Raster(v.w, v.h, v.radius))
	case *AssemblyBoard:
		for _, p := range v.Pieces() {
			if _, err := v.Drop(p.ID, 0, 0); err != nil {
				return Completion{}, err
			}
		}
	default:
		return Completion{}, errs.Configurationf("auto play: unsupported board %T", b)
	}
	c, ok := b.Result()
	if !ok {
		return Completion{}, errs.Stagef("auto play: %s board did not complete", b.Kind())
	}
	return c, nil
}
