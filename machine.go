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

package strikelab

import (
	"sync"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/recorder"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/outcome"
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/sdk/prize"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/sdk/sampler"
	"github.com/zintix-labs/strikelab/spec"
)

// Machine 自動遊玩的開獎機台：不經過鏈與歷史紀錄，只跑 判定 → 謎題 → 自動互動 → 結算。
//
// 抽樣順序與 flow.Controller 相同（判定、謎題種類、盤面、拼圖獎項），
// 因此同一個 seed 產生的判定與盤面與線上 Session 一致。
//
// 同一台 Machine 不應被多 goroutine 同時使用；要併發請建立多台。
type Machine struct {
	labName  string
	ls       *spec.LabSetting
	prng     core.PRNG
	core     *core.Core
	decider  *outcome.Decider
	synth    *pattern.Synthesizer
	kinds    []spec.PuzzleKind
	kindPick sampler.Picker
	resolver *prize.Resolver
	mu       sync.Mutex
	initseed int64
}

func newMachineWithSeed(name string, ls *spec.LabSetting, pf core.PRNGFactory, seed int64) (*Machine, error) {
	pick, err := sampler.NewPicker(ls.Puzzles.WeightList())
	if err != nil {
		return nil, err
	}
	prng := pf.New(seed)
	c := core.New(prng)
	return &Machine{
		labName:  name,
		ls:       ls,
		prng:     prng,
		core:     c,
		decider:  outcome.NewDecider(ls.Odds(), c),
		synth:    pattern.NewSynthesizer(c, ls.SymbolSetting.Len()),
		kinds:    ls.Puzzles.KindList(),
		kindPick: pick,
		resolver: prize.NewResolver(ls.Odds()),
		initseed: seed,
	}, nil
}

func (m *Machine) LabName() string { return m.labName }

func (m *Machine) Setting() *spec.LabSetting { return m.ls }

func (m *Machine) InitSeed() int64 { return m.initseed }

// Play 自動遊玩一張票。
func (m *Machine) Play(tier spec.Tier) (recorder.Play, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.play(tier)
}

// play 熱路徑，不上鎖。
func (m *Machine) play(tier spec.Tier) (recorder.Play, error) {
	d, err := m.decider.Decide(tier)
	if err != nil {
		return recorder.Play{}, err
	}
	kind := m.kinds[m.kindPick.Pick(m.core)]
	var p pattern.Pattern
	if size := m.ls.Puzzles.GridSize(kind); size > 0 {
		if p, err = m.synth.Synthesize(d.IsWinner, size); err != nil {
			return recorder.Play{}, err
		}
	}
	board, err := reveal.Build(kind, &m.ls.Puzzles, p)
	if err != nil {
		return recorder.Play{}, err
	}
	defer board.Close()
	comp, err := reveal.AutoPlay(board)
	if err != nil {
		return recorder.Play{}, err
	}
	amt, err := m.resolver.ForCompletion(d, comp, m.core)
	if err != nil {
		return recorder.Play{}, err
	}
	return recorder.Play{
		Tier:       d.Tier,
		Kind:       kind,
		IsWinner:   d.IsWinner,
		MatchCount: comp.MatchCount,
		Prize:      amt,
	}, nil
}

// SnapshotCore 取得 PRNG 狀態快照。
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prng.Snapshot()
}

// RestoreCore 把 PRNG 還原到快照；之後的票與快照當下的票完全相同。
func (m *Machine) RestoreCore(src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.prng.Restore(src); err != nil {
		return errs.WrapKind(err, errs.Warn, errs.KindNone, "restore core failed")
	}
	return nil
}
