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
	"testing"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
)

func TestNewLUTExpands(t *testing.T) {
	lut, err := NewLUT([]int{2, 0, 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []int{0, 0, 2}
	if lut.Len() != len(want) {
		t.Fatalf("len = %d", lut.Len())
	}
	for i := range want {
		if lut[i] != want[i] {
			t.Fatalf("lut = %v, want %v", lut, want)
		}
	}
}

func TestNewLUTRejects(t *testing.T) {
	cases := [][]int{nil, {0, 0}, {1, -1}}
	for _, c := range cases {
		if _, err := NewLUT(c); !errs.IsKind(err, errs.KindConfiguration) {
			t.Fatalf("weights %v: expected configuration error, got %v", c, err)
		}
	}
}

func TestPickNeverReturnsZeroWeight(t *testing.T) {
	lut := BuildLUT([]uint8{1, 0, 1})
	c := core.NewWithSeed(3)
	for i := 0; i < 1000; i++ {
		if got := lut.Pick(c); got == 1 {
			t.Fatalf("picked zero-weight index")
		}
	}
}

// TestAliasTableDistribution 大量抽樣結果應符合權重比例
func TestAliasTableDistribution(t *testing.T) {
	weights := []int{10, 20, 0, 70}
	at, err := NewAliasTable(weights)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c := core.NewWithSeed(7)
	const trials = 100000
	counts := make([]int, len(weights))
	for i := 0; i < trials; i++ {
		counts[at.Pick(c)]++
	}
	if counts[2] != 0 {
		t.Fatalf("picked zero-weight index %d times", counts[2])
	}
	for i, w := range weights {
		got := float64(counts[i]) / trials
		want := float64(w) / 100
		if got < want-0.01 || got > want+0.01 {
			t.Fatalf("index %d: freq %.4f, want %.2f", i, got, want)
		}
	}
}

func TestNewAliasTableRejects(t *testing.T) {
	cases := [][]int{nil, {0, 0}, {10, -1}, {math.MaxInt, 1}}
	for _, c := range cases {
		if _, err := NewAliasTable(c); !errs.IsKind(err, errs.KindConfiguration) {
			t.Fatalf("weights %v: expected configuration error, got %v", c, err)
		}
	}
}

func TestNewPickerChoosesByTotal(t *testing.T) {
	small, err := NewPicker([]int{1, 1, 1})
	if err != nil {
		t.Fatalf("small: %v", err)
	}
	if _, ok := small.(LUT); !ok || small.Len() != 3 {
		t.Fatalf("small weights picker = %T", small)
	}
	big, err := NewPicker([]int{int(maxLUTCap), 1, int(maxLUTCap)})
	if err != nil {
		t.Fatalf("big: %v", err)
	}
	if _, ok := big.(*AliasTable); !ok || big.Len() != 3 {
		t.Fatalf("big weights picker = %T", big)
	}
	c := core.NewWithSeed(1)
	for i := 0; i < 1000; i++ {
		if got := big.Pick(c); got < 0 || got > 2 {
			t.Fatalf("pick = %d", got)
		}
	}
	if _, err := NewPicker([]int{0}); !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("zero weights err = %v", err)
	}
}
