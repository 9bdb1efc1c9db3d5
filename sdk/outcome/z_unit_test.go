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

package outcome_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/outcome"
	"github.com/zintix-labs/strikelab/spec"
)

func odds(t *testing.T) *spec.OddsTable {
	t.Helper()
	ls, err := spec.GetLabSettingFromFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ls.Odds()
}

func TestWinRateConverges(t *testing.T) {
	ot := odds(t)
	const draws = 10000
	for i, tier := range ot.Tiers() {
		d := outcome.NewDecider(ot, core.NewWithSeed(int64(100+i)))
		wins := 0
		for n := 0; n < draws; n++ {
			dec, err := d.Decide(tier)
			if err != nil {
				t.Fatalf("decide: %v", err)
			}
			if dec.Tier != tier {
				t.Fatalf("decision tier = %s", dec.Tier)
			}
			if dec.IsWinner {
				wins++
			}
		}
		ts, _ := ot.Lookup(tier)
		p := ts.WinProbability
		se := math.Sqrt(p * (1 - p) / draws)
		got := float64(wins) / draws
		if math.Abs(got-p) > 4*se {
			t.Fatalf("%s: win rate %.4f, want %.4f ± %.4f", tier, got, p, 4*se)
		}
	}
}

func TestDecideThreshold(t *testing.T) {
	ot := odds(t)
	// bronze = 0.2 : 0.1999 wins, 0.2 loses
	d := outcome.NewDecider(ot, core.NewFromSource(core.NewSequence(0.1999, 0.2)))
	if dec, _ := d.Decide(spec.Bronze); !dec.IsWinner {
		t.Fatalf("0.1999 should win bronze")
	}
	if dec, _ := d.Decide(spec.Bronze); dec.IsWinner {
		t.Fatalf("0.2 should lose bronze")
	}
}

func TestDecideUnknownTier(t *testing.T) {
	seq := core.NewSequence(0.5, 0.0)
	d := outcome.NewDecider(odds(t), core.NewFromSource(seq))
	if _, err := d.Decide("platinum"); !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	// no sample consumed: the next draw is still 0.5
	if dec, _ := d.Decide(spec.Gold); dec.IsWinner {
		t.Fatalf("unknown tier consumed a sample")
	}
}
