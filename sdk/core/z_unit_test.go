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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.Next() != c2.Next() {
		t.Fatalf("Next mismatch")
	}
}

func TestCorePickAndShuffle(t *testing.T) {
	c := NewWithSeed(9)
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	want := []int{1, 2, 3, 4}
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestSnapshotRestore(t *testing.T) {
	rng := Default().New(42)
	snap, err := rng.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := rng.Uint64()
	if err := rng.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if again := rng.Uint64(); again != first {
		t.Fatalf("restore did not rewind: %d vs %d", first, again)
	}
}

func TestSequenceSource(t *testing.T) {
	c := NewFromSource(NewSequence(0.0, 0.5, 0.999, 1.5, -1))
	if got := c.IntN(4); got != 0 {
		t.Fatalf("IntN(0.0) = %d", got)
	}
	if got := c.IntN(4); got != 2 {
		t.Fatalf("IntN(0.5) = %d", got)
	}
	if got := c.IntN(4); got != 3 {
		t.Fatalf("IntN(0.999) = %d", got)
	}
	// out-of-range samples are clamped into [0,1)
	if got := c.IntN(4); got != 3 {
		t.Fatalf("IntN(1.5) = %d", got)
	}
	if got := c.Next(); got != 0 {
		t.Fatalf("Next(-1) = %v", got)
	}
	// cycles
	if got := c.Next(); got != 0 {
		t.Fatalf("sequence did not cycle, got %v", got)
	}
}

func TestChance(t *testing.T) {
	c := NewFromSource(NewSequence(0.19, 0.2))
	if !c.Chance(0.2) {
		t.Fatalf("0.19 < 0.2 should win")
	}
	if c.Chance(0.2) {
		t.Fatalf("0.2 < 0.2 should lose")
	}
}

func TestRandomnessDeterministic(t *testing.T) {
	a := NewWithSeed(11).Randomness()
	b := NewWithSeed(11).Randomness()
	if a != b {
		t.Fatalf("same seed should give same randomness")
	}
	if a == ([32]byte{}) {
		t.Fatalf("randomness should not be all zero")
	}
	c := NewWithSeed(12).Randomness()
	if a == c {
		t.Fatalf("different seeds should differ")
	}
}

func TestBoundedRange(t *testing.T) {
	c := NewWithSeed(3)
	for _, n := range []int{1, 2, 3, 7, 16, 1000} {
		for i := 0; i < 200; i++ {
			if v := c.IntN(n); v < 0 || v >= n {
				t.Fatalf("IntN(%d) = %d", n, v)
			}
		}
	}
	if c.IntN(0) != -1 || c.UintN(0) != 0 {
		t.Fatalf("degenerate bounds")
	}
}
