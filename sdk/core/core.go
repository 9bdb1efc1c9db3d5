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

// Package core 提供開獎引擎唯一的亂數入口。
//
// 所有抽樣（中獎判定、盤面合成、謎題種類、拼圖獎項）都必須經由 Core，
// 不得直接呼叫 math/rand 的全域函式，才能以固定 seed 或腳本序列重現任何一張票。
package core

// Source 是最小的亂數來源合約：Next 回傳 [0,1) 的浮點數。
//
// 測試時可用 Sequence 注入固定序列；正式環境使用 PCG64。
type Source interface {
	Next() float64
}

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// IntN/UintN 交由實作提供，讓 64-bit PRNG 可以走無偏的乘法高位路徑。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一實作下 New(seed) 必須是決定性的，相同 seed 產生相同序列。
// Lab 會保存 baseSeed，所有 Session / Simulator 都由它派生子 seed。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝亂數來源，並提供常用取樣與工具方法。
type Core struct {
	RAND
}

// New 允許使用外部自實現的亂數來源建立 Core。
func New(rng RAND) *Core {
	return &Core{rng}
}

// NewFromSource 以只提供 Next 的來源建立 Core（測試用的腳本序列即走此路徑）。
func NewFromSource(src Source) *Core {
	return &Core{&sourceRAND{src: src}}
}

// NewWithSeed 以預設 PCG64 與指定 seed 建立 Core。
func NewWithSeed(seed int64) *Core {
	return New(Default().New(seed))
}

// Next 回傳 [0,1) 的浮點亂數，滿足 Source。
func (c *Core) Next() float64 {
	return c.Float64()
}

// Chance 抽一次樣本並回傳 sample < p。
func (c *Core) Chance(p float64) bool {
	return c.Float64() < p
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// ShuffleInts 以 Fisher-Yates 對 []int 就地重排，所有 N! 排列等機率。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// sourceRAND 把 Source 轉成 RAND。bounded 取樣使用 floor(Next()*n)，
// 與瀏覽器端 Math.floor(Math.random()*n) 的語意一致。
type sourceRAND struct {
	src Source
}

func (s *sourceRAND) Float64() float64 {
	f := s.src.Next()
	if f < 0 {
		return 0
	}
	if f >= 1 {
		return 0x1.fffffffffffffp-1
	}
	return f
}

func (s *sourceRAND) Uint64() uint64 {
	return uint64(s.Float64() * (1 << 53))
}

func (s *sourceRAND) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	v := uint(s.Float64() * float64(max))
	return min(v, max-1)
}

func (s *sourceRAND) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	v := int(s.Float64() * float64(max))
	return min(v, max-1)
}

// Sequence 是循環回放的固定序列來源，用於決定性測試。
type Sequence struct {
	vals []float64
	pos  int
}

// NewSequence 建立回放 vals 的來源；vals 為空時永遠回傳 0。
func NewSequence(vals ...float64) *Sequence {
	return &Sequence{vals: vals}
}

func (s *Sequence) Next() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.pos%len(s.vals)]
	s.pos++
	return v
}
