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

// Package sampler 提供加權抽樣工具。
//
// 謎題種類的權重總和通常很小（個位數到數百），展開成查找表後每次抽樣只需一次 IntN；
// 總和超過查找表上限時改用 AliasTable，記憶體只與選項數量有關。
package sampler

import (
	"fmt"
	"math"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
)

const maxLUTCap uint64 = 1_000_000

// Weight 可作為權重的整數型別（設定檔的 int、uint8 等）。
type Weight interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Picker 以 Core 抽出一個索引。
type Picker interface {
	Pick(c *core.Core) int
	Len() int
}

// NewPicker 權重總和不超過查找表上限時建 LUT，否則建 AliasTable。
//
// 兩者對同一組權重的機率相同，但 LUT 每次只消耗一個亂數，固定序列重播時結果不同。
func NewPicker[T Weight](src []T) (Picker, error) {
	total, err := weightTotal(src)
	if err != nil {
		return nil, err
	}
	if total <= maxLUTCap {
		lut, err := NewLUT(src)
		if err != nil {
			return nil, err
		}
		return lut, nil
	}
	at, err := NewAliasTable(src)
	if err != nil {
		return nil, err
	}
	return at, nil
}

func weightTotal[T Weight](src []T) (uint64, error) {
	if len(src) == 0 {
		return 0, errs.Configurationf("lut: empty weights")
	}
	acc := uint64(0)
	for i, v := range src {
		if v < 0 {
			return 0, errs.Configurationf("lut: negative weight at %d", i)
		}
		uv := uint64(v)
		if acc > math.MaxUint64-uv {
			return 0, errs.Configurationf("lut: total weight overflow")
		}
		acc += uv
	}
	if acc == 0 {
		return 0, errs.Configurationf("lut: all weights are zero")
	}
	return acc, nil
}

// LUT 查找表：索引 i 在表中出現的次數等於其權重。
//
// 例：權重 [1,1,1,0] 展開為 [0,1,2]，抽到各前三項的機率皆為 1/3，第四項永遠抽不到。
type LUT []int

// NewLUT 根據權重列表建立查找表，權重不合法時回傳錯誤（設定載入路徑使用）。
func NewLUT[T Weight](src []T) (LUT, error) {
	acc, err := weightTotal(src)
	if err != nil {
		return nil, err
	}
	if acc > maxLUTCap {
		return nil, errs.Configurationf("lut: total weight %d exceeds limit %d", acc, maxLUTCap)
	}

	lut := make([]int, 0, int(acc))
	for i, v := range src {
		for j := T(0); j < v; j++ {
			lut = append(lut, i)
		}
	}
	return lut, nil
}

// BuildLUT 與 NewLUT 相同，但權重不合法時 panic（僅用於常數權重）。
func BuildLUT[T Weight](src []T) LUT {
	lut, err := NewLUT(src)
	if err != nil {
		panic(fmt.Sprintf("lut: %v", err))
	}
	return lut
}

// Pick 透過 Core 從 LUT 中取一個索引；lut 為空回傳 -1。
func (l LUT) Pick(c *core.Core) int {
	return c.Pick(l)
}

// Len 回傳展開後的長度（權重總和）。
func (l LUT) Len() int {
	return len(l)
}
