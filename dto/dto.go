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

package dto

import (
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/recorder"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/spec"
)

// TierInfo 票種對外資訊（價格、機率、獎金表）。
type TierInfo struct {
	Tier           spec.Tier      `json:"tier"`
	Name           string         `json:"name"`
	ChainIndex     uint8          `json:"chain_index"`
	PriceETH       string         `json:"price_eth"`
	PriceUSD       string         `json:"price_usd"`
	WinProbability float64        `json:"win_probability"`
	Prizes         map[int]string `json:"prizes"`
}

// LabInfo 一組開獎設定的票種清單與謎題權重。
type LabInfo struct {
	Name    string         `json:"name"`
	Symbols []string       `json:"symbols"`
	Tiers   []TierInfo     `json:"tiers"`
	Puzzles map[string]int `json:"puzzles"`
}

func NewLabInfo(name string, ls *spec.LabSetting) LabInfo {
	info := LabInfo{
		Name:    name,
		Symbols: ls.SymbolSetting.Symbols,
		Tiers:   make([]TierInfo, 0, len(ls.Tiers)),
		Puzzles: make(map[string]int, len(ls.Puzzles.Weights)),
	}
	for _, ts := range ls.Odds().Settings() {
		prizes := make(map[int]string, len(spec.MatchCounts))
		for _, n := range spec.MatchCounts {
			if a, ok := ts.PrizeFor(n); ok {
				prizes[n] = a.String()
			}
		}
		info.Tiers = append(info.Tiers, TierInfo{
			Tier:           ts.Tier,
			Name:           ts.Name,
			ChainIndex:     ts.ChainIndex,
			PriceETH:       ts.PriceInETH().String(),
			PriceUSD:       ts.PriceInUSD().String(),
			WinProbability: ts.WinProbability,
			Prizes:         prizes,
		})
	}
	for _, w := range ls.Puzzles.Weights {
		info.Puzzles[string(w.Kind)] = w.Weight
	}
	return info
}

// SessionResponse Session 狀態回應。
type SessionResponse struct {
	Session string     `json:"session"`
	Lab     string     `json:"lab"`
	State   flow.State `json:"state"`
}

// StepResponse 互動輸入的回應：本次歸約結果與之後的完整狀態。
type StepResponse struct {
	Session string      `json:"session"`
	Step    reveal.Step `json:"step"`
	State   flow.State  `json:"state"`
}

// HistoryResponse 玩家歷史紀錄（新到舊）與累計獎金。
type HistoryResponse struct {
	Player  string           `json:"player"`
	Records []history.Record `json:"records"`
	Total   string           `json:"total_winnings"`
}

type TotalResponse struct {
	Player string `json:"player"`
	Total  string `json:"total_winnings"`
}

// PlayResult 模擬器單張票結果。
type PlayResult struct {
	Index      int             `json:"index"`
	Tier       spec.Tier       `json:"tier"`
	Kind       spec.PuzzleKind `json:"puzzle_type"`
	IsWinner   bool            `json:"is_winner"`
	MatchCount int             `json:"match_count"`
	Prize      string          `json:"prize_amount,omitempty"`
}

func NewPlayResult(i int, p recorder.Play) PlayResult {
	r := PlayResult{
		Index:      i,
		Tier:       p.Tier,
		Kind:       p.Kind,
		IsWinner:   p.IsWinner,
		MatchCount: p.MatchCount,
	}
	if p.Prize != nil {
		r.Prize = p.Prize.String()
	}
	return r
}

// StreamMessage websocket 推播的單一事件。
type StreamMessage struct {
	Kind    flow.EventKind  `json:"kind"`
	Session string          `json:"session"`
	Record  *history.Record `json:"record,omitempty"`
	Total   string          `json:"total_winnings,omitempty"`
}
