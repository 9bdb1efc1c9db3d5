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

package recorder

import (
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/spec"
	"github.com/zintix-labs/strikelab/stats"
)

// Play 一張票從購買到結算的結果。
type Play struct {
	Tier       spec.Tier
	Kind       spec.PuzzleKind
	IsWinner   bool
	MatchCount int
	Prize      *money.Amount
}

// PlayRecorder 開獎紀錄員
//
// 只統計單一票種；並行模擬時每個 worker 一份，結束後再合併。
type PlayRecorder struct {
	LabName  string
	Tier     spec.Tier
	Price    money.Amount
	WinProb  float64
	Basic    *BasicRecord
	Dist     *DistRecord
	priceF   float64
	gridSize int
}

// BasicRecord 基本開獎資料紀錄
type BasicRecord struct {
	Rounds         int
	Winners        int
	Paid           int
	TotalCost      money.Amount
	TotalPrize     money.Amount
	PrizeMult      float64
	PrizeMultSqSum float64 // 平方和
}

// DistRecord 分布紀錄
type DistRecord struct {
	Match    []int
	Kinds    map[spec.PuzzleKind]int
	KindPaid map[spec.PuzzleKind]int
	Prizes   map[string]int
}

func NewPlayRecorder(ls *spec.LabSetting, tier spec.Tier) (*PlayRecorder, error) {
	if ls == nil {
		return nil, errs.Configurationf("recorder: nil lab setting")
	}
	ts, err := ls.Odds().Lookup(tier)
	if err != nil {
		return nil, err
	}
	price := ts.PriceInUSD()
	if !price.Decimal().IsPositive() {
		return nil, errs.Configurationf("recorder: tier %s has no usd price", tier)
	}
	grid := max(ls.Puzzles.GridSize(spec.KindClick), ls.Puzzles.GridSize(spec.KindScratch))
	return &PlayRecorder{
		LabName:  ls.LabName,
		Tier:     ts.Tier,
		Price:    price,
		WinProb:  ts.WinProbability,
		Basic:    &BasicRecord{TotalCost: money.Zero, TotalPrize: money.Zero},
		Dist:     newDistRecord(grid),
		priceF:   price.Float64(),
		gridSize: grid,
	}, nil
}

// MergePlayRecorder 合併同一票種的紀錄員。
func MergePlayRecorder(r []*PlayRecorder) (*PlayRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge play record err : empty")
	}
	r0 := r[0]
	s := &PlayRecorder{
		LabName:  r0.LabName,
		Tier:     r0.Tier,
		Price:    r0.Price,
		WinProb:  r0.WinProb,
		Basic:    &BasicRecord{TotalCost: money.Zero, TotalPrize: money.Zero},
		Dist:     newDistRecord(r0.gridSize),
		priceF:   r0.priceF,
		gridSize: r0.gridSize,
	}
	for _, v := range r {
		if v.LabName != r0.LabName || v.Tier != r0.Tier {
			return s, errs.NewFatal("merge play record err : different lab or tier")
		}
		b := v.Basic
		s.Basic.Rounds += b.Rounds
		s.Basic.Winners += b.Winners
		s.Basic.Paid += b.Paid
		s.Basic.TotalCost = s.Basic.TotalCost.Add(b.TotalCost)
		s.Basic.TotalPrize = s.Basic.TotalPrize.Add(b.TotalPrize)
		s.Basic.PrizeMult += b.PrizeMult
		s.Basic.PrizeMultSqSum += b.PrizeMultSqSum

		for i, c := range v.Dist.Match {
			s.Dist.addMatch(i, c)
		}
		for k, c := range v.Dist.Kinds {
			s.Dist.Kinds[k] += c
		}
		for k, c := range v.Dist.KindPaid {
			s.Dist.KindPaid[k] += c
		}
		for k, c := range v.Dist.Prizes {
			s.Dist.Prizes[k] += c
		}
	}
	return s, nil
}

// Record 以單張票結果更新統計。
func (s *PlayRecorder) Record(p Play) {
	b := s.Basic
	b.Rounds++
	b.TotalCost = b.TotalCost.Add(s.Price)
	if p.IsWinner {
		b.Winners++
	}
	s.Dist.Kinds[p.Kind]++
	s.Dist.addMatch(p.MatchCount, 1)
	if p.Prize == nil {
		return
	}
	b.Paid++
	b.TotalPrize = b.TotalPrize.Add(*p.Prize)
	m := p.Prize.Float64() / s.priceF
	b.PrizeMult += m
	b.PrizeMultSqSum += m * m
	s.Dist.KindPaid[p.Kind]++
	s.Dist.Prizes[p.Prize.String()]++
}

func (s *PlayRecorder) Done() *stats.StatReport {
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			LabName:        s.LabName,
			Tier:           s.Tier,
			PriceUSD:       s.Price.String(),
			WinProbability: s.WinProb,
			Rounds:         s.Basic.Rounds,
			Winners:        s.Basic.Winners,
			Paid:           s.Basic.Paid,
			TotalCost:      s.Basic.TotalCost.String(),
			TotalPrize:     s.Basic.TotalPrize.String(),
		},
		Mult: &stats.MultReport{
			PrizeMult:      s.Basic.PrizeMult,
			PrizeMultSqSum: s.Basic.PrizeMultSqSum,
		},
		Dist: &stats.DistReport{
			MatchCollect: append([]int(nil), s.Dist.Match...),
			Kinds:        cloneCount(s.Dist.Kinds),
			KindPaid:     cloneCount(s.Dist.KindPaid),
			Prizes:       cloneCount(s.Dist.Prizes),
		},
	}
	report.Done()
	return report
}

func newDistRecord(grid int) *DistRecord {
	return &DistRecord{
		Match:    make([]int, grid+1),
		Kinds:    map[spec.PuzzleKind]int{},
		KindPaid: map[spec.PuzzleKind]int{},
		Prizes:   map[string]int{},
	}
}

func (d *DistRecord) addMatch(n int, c int) {
	if n < 0 {
		return
	}
	for len(d.Match) <= n {
		d.Match = append(d.Match, 0)
	}
	d.Match[n] += c
}

func cloneCount[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
