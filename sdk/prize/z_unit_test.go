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

package prize_test

import (
	"testing"

	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/sdk/outcome"
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/sdk/prize"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/spec"
)

func newResolver(t *testing.T) (*prize.Resolver, *spec.LabSetting) {
	t.Helper()
	ls, err := spec.GetLabSettingFromFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	return prize.NewResolver(ls.Odds()), ls
}

func amountString(a *money.Amount) string {
	if a == nil {
		return "<nil>"
	}
	return a.String()
}

func TestResolveTable(t *testing.T) {
	r, _ := newResolver(t)
	cases := []struct {
		tier spec.Tier
		n    int
		want string
	}{
		{spec.Bronze, 0, "<nil>"},
		{spec.Bronze, 2, "<nil>"},
		{spec.Bronze, 3, "$5"},
		{spec.Bronze, 4, "$10"},
		{spec.Silver, 4, "$25"},
		{spec.Gold, 5, "$100"},
		{spec.Gold, 9, "$100"},
	}
	for _, c := range cases {
		got, err := r.Resolve(c.tier, c.n)
		if err != nil {
			t.Fatalf("resolve(%s,%d): %v", c.tier, c.n, err)
		}
		if amountString(got) != c.want {
			t.Fatalf("resolve(%s,%d) = %s, want %s", c.tier, c.n, amountString(got), c.want)
		}
	}
	if _, err := r.Resolve("platinum", 3); !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("unknown tier err = %v", err)
	}
}

func TestResolveAssembly(t *testing.T) {
	r, _ := newResolver(t)
	rng := core.NewFromSource(core.NewSequence(0.0, 0.5, 0.99))
	want := []string{"$25", "$50", "$100"}
	for _, w := range want {
		got, err := r.ResolveAssembly(spec.Gold, true, rng)
		if err != nil || amountString(got) != w {
			t.Fatalf("assembly = %s %v, want %s", amountString(got), err, w)
		}
	}
	got, err := r.ResolveAssembly(spec.Gold, false, rng)
	if err != nil || got != nil {
		t.Fatalf("loser assembly = %s %v", amountString(got), err)
	}
}

func TestForCompletionGates(t *testing.T) {
	r, _ := newResolver(t)
	rng := core.NewWithSeed(3)

	// 中獎票但實際連線不足：沒有獎金
	got, _ := r.ForCompletion(outcome.Forced(spec.Silver, true), reveal.Completion{Kind: spec.KindClick, Matching: true, MatchCount: 2}, rng)
	if got != nil {
		t.Fatalf("winner with 2 matches got %s", got)
	}
	// 拼圖：只看 isWinner
	got, _ = r.ForCompletion(outcome.Forced(spec.Silver, true), reveal.Completion{Kind: spec.KindDrag}, rng)
	if got == nil {
		t.Fatalf("winning assembly got nothing")
	}
	got, _ = r.ForCompletion(outcome.Forced(spec.Silver, false), reveal.Completion{Kind: spec.KindSwipe}, rng)
	if got != nil {
		t.Fatalf("losing swipe got %s", got)
	}
}

func TestGoldForcedFourEndToEnd(t *testing.T) {
	r, ls := newResolver(t)
	rng := core.NewWithSeed(2025)
	d := outcome.Forced(spec.Gold, true)

	s := pattern.NewSynthesizer(rng, ls.SymbolSetting.Len())
	p, err := s.SynthesizeWinner(16, 4)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	win, n := p.Max(ls.SymbolSetting.Len())
	if n != 4 {
		t.Fatalf("winning count = %d", n)
	}
	for id, c := range p.Counts(ls.SymbolSetting.Len()) {
		if pattern.SymbolID(id) != win && c >= 3 {
			t.Fatalf("symbol %d appears %d times", id, c)
		}
	}

	b := reveal.NewTileBoard(p, 4)
	var done *reveal.Completion
	for i := 15; i >= 0; i-- {
		st, err := b.Reveal(i)
		if err != nil {
			t.Fatalf("reveal: %v", err)
		}
		if st.Completion != nil {
			done = st.Completion
			if st.Tally[win] != 4 {
				t.Fatalf("tally[win] = %d", st.Tally[win])
			}
		}
	}
	if done == nil || done.MatchCount != 4 {
		t.Fatalf("completion = %+v", done)
	}
	got, err := r.ForCompletion(d, *done, rng)
	if err != nil || amountString(got) != "$50" {
		t.Fatalf("prize = %s %v, want $50", amountString(got), err)
	}
}

func TestBronzeLoserEndToEnd(t *testing.T) {
	r, ls := newResolver(t)
	rng := core.NewWithSeed(7)
	d := outcome.Forced(spec.Bronze, false)
	s := pattern.NewSynthesizer(rng, ls.SymbolSetting.Len())

	for round := 0; round < 200; round++ {
		p, err := s.Synthesize(d.IsWinner, 9)
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		if _, n := p.Max(ls.SymbolSetting.Len()); n >= 3 {
			t.Fatalf("loser pattern has %d of a symbol", n)
		}
		order := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
		rng.ShuffleInts(order)
		b := reveal.NewTileBoard(p, 3)
		var done *reveal.Completion
		for _, i := range order {
			st, _ := b.Reveal(i)
			if st.Completion != nil {
				done = st.Completion
			}
		}
		if done == nil || done.MatchCount >= 3 {
			t.Fatalf("completion = %+v", done)
		}
		got, err := r.ForCompletion(d, *done, rng)
		if err != nil || got != nil {
			t.Fatalf("loser prize = %s %v", amountString(got), err)
		}
	}
}
