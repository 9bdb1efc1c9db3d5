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

// PCG64 以 math/rand/v2 的 PCG 為底層。
// 有界取樣走 Lemire 的乘法高位 + 拒絕採樣，與標準庫 math/rand 的作法相同。

package core

import (
	"encoding/binary"
	"math/bits"
	r2 "math/rand/v2"
)

// 種子展開用的常數（splitmix64 的黃金比例增量與第二條流的擾動值）。
const (
	golden    = 0x9e3779b97f4a7c15
	streamXor = 0xDA942042E4DD58B5
)

// PCG64 亂數產生器，實作 PRNG。
type PCG64 struct {
	rng *r2.PCG
}

func newPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ golden
	return &PCG64{rng: r2.NewPCG(splitmix64(x), splitmix64(x^streamXor))}
}

func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// UintN 回傳 [0,max)，max == 0 時回傳 0。
func (r *PCG64) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.bounded(uint64(max)))
}

// IntN 回傳 [0,max)，max <= 0 時回傳 -1。
func (r *PCG64) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return int(r.bounded(uint64(max)))
}

// Float64 取低 53 bits。
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()<<11>>11) / (1 << 53)
}

func (r *PCG64) Snapshot() ([]byte, error) {
	return r.rng.MarshalBinary()
}

func (r *PCG64) Restore(data []byte) error {
	return r.rng.UnmarshalBinary(data)
}

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// bounded 回傳 [0,n) 的無偏亂數。
func (r *PCG64) bounded(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}

// Randomness 抽 256 bits 作為鏈上開刮的亂數（little-endian 四段 uint64）。
func (c *Core) Randomness() [32]byte {
	var out [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], c.Uint64())
	}
	return out
}
