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
	"github.com/zintix-labs/strikelab/corefmt"
	"github.com/zintix-labs/strikelab/dto"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/spec"
)

// DevSimulator
//
// 單線（不併發）的逐張模擬器，重點在可審計、可重現：
// 每份報表都帶 PRNG 起始與結束快照，拿起始快照重跑會得到同一串票。
type DevSimulator struct {
	m *Machine
}

type DevPlayReport struct {
	Lab        string           `json:"lab"`
	Before     string           `json:"start_b64u"`
	After      string           `json:"after_b64u"`
	Round      int              `json:"round"`
	Winners    int              `json:"winners"`
	Paid       int              `json:"paid"`
	TotalCost  string           `json:"total_cost"`
	TotalPrize string           `json:"total_prize"`
	Results    []dto.PlayResult `json:"results"`
}

// Plays 從目前的 PRNG 狀態連續遊玩 round 張票。
func (d *DevSimulator) Plays(tier spec.Tier, round int) (DevPlayReport, error) {
	if round < 1 || round > dto.MaxTraceRounds {
		return DevPlayReport{}, errs.Warnf("round must be between 1 and %d", dto.MaxTraceRounds)
	}
	ts, err := d.m.Setting().Odds().Lookup(tier)
	if err != nil {
		return DevPlayReport{}, err
	}
	be, err := d.m.SnapshotCore()
	if err != nil {
		return DevPlayReport{}, err
	}

	rep := DevPlayReport{
		Lab:     d.m.LabName(),
		Before:  corefmt.EncodeBase64URL(be),
		Round:   round,
		Results: make([]dto.PlayResult, 0, round),
	}
	cost, won := money.Zero, money.Zero
	for i := range round {
		p, err := d.m.Play(ts.Tier)
		if err != nil {
			return DevPlayReport{}, errs.Wrap(err, "play error")
		}
		cost = cost.Add(ts.PriceInUSD())
		if p.IsWinner {
			rep.Winners++
		}
		if p.Prize != nil {
			rep.Paid++
			won = won.Add(*p.Prize)
		}
		rep.Results = append(rep.Results, dto.NewPlayResult(i, p))
	}
	af, err := d.m.SnapshotCore()
	if err != nil {
		return DevPlayReport{}, err
	}
	rep.After = corefmt.EncodeBase64URL(af)
	rep.TotalCost = cost.String()
	rep.TotalPrize = won.String()
	return rep, nil
}

// RestorePlays 先把 PRNG 還原到 be64 再遊玩。
func (d *DevSimulator) RestorePlays(be64 string, tier spec.Tier, round int) (DevPlayReport, error) {
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevPlayReport{}, errs.Wrap(err, "decode start state failed")
	}
	if err := d.m.RestoreCore(be); err != nil {
		return DevPlayReport{}, err
	}
	return d.Plays(tier, round)
}
