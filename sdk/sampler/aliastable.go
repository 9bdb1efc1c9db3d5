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

package sampler

import (
	"math"
	"math/bits"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
)

// AliasTable Vose Alias Method 的整數版本：建表 O(N)，抽樣 O(1)（固定兩次 IntN），
// 記憶體只與選項數量有關，與權重總和無關。
//
// Prob 為 weight*Size 的整數 scaling，抽樣以 IntN(Total) < Prob[idx] 比較，不經過浮點數。
type AliasTable struct {
	Prob    []int
	Aliases []int
	Size    int
	Total   int
}

// NewAliasTable 根據非負整數權重建表；全為零、負權重或乘積溢位時回傳錯誤。
func NewAliasTable[T Weight](weights []T) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, errs.Configurationf("alias: empty weights")
	}
	total := uint64(0)
	for i, v := range weights {
		if v < 0 {
			return nil, errs.Configurationf("alias: negative weight at %d", i)
		}
		w := uint64(v)
		if total > uint64(math.MaxInt)-w {
			return nil, errs.Configurationf("alias: total weight overflow")
		}
		total += w
	}
	if total == 0 {
		return nil, errs.Configurationf("alias: all weights are zero")
	}
	if !isSafeMultiply(total, uint64(n)) {
		return nil, errs.Configurationf("alias: weights too large for %d items", n)
	}

	tot := int(total)
	prob := make([]int, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, v := range weights {
		prob[i] = int(v) * n
		if prob[i] < tot {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}
	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		// s 不足的部分由 l 補上，維持 sum(prob) = total*n
		aliases[s] = l
		prob[l] = prob[l] + prob[s] - tot
		if prob[l] < tot {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// 剩下的槽位機率恰為 total（整數運算下沒有捨入殘差）
	for _, i := range large {
		aliases[i] = i
	}
	for _, i := range small {
		aliases[i] = i
	}
	return &AliasTable{Prob: prob, Aliases: aliases, Size: n, Total: tot}, nil
}

func isSafeMultiply(a, b uint64) bool {
	hi, lo := bits.Mul64(a, b)
	return hi == 0 && lo <= math.MaxInt64
}

// Pick 抽一個索引；表為空回傳 -1。
func (at *AliasTable) Pick(c *core.Core) int {
	if at == nil || at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.IntN(at.Total) < at.Prob[idx] {
		return idx
	}
	return at.Aliases[idx]
}

// Len 回傳選項數量。
func (at *AliasTable) Len() int {
	if at == nil {
		return 0
	}
	return at.Size
}
