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

package spec

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
)

// Tier 票種。
type Tier string

const (
	Bronze Tier = "bronze"
	Silver Tier = "silver"
	Gold   Tier = "gold"
)

// MatchCounts 為賠率表必須涵蓋的連線數，依序為 3、4、5。
var MatchCounts = []int{3, 4, 5}

// MinMatch 最低中獎連線數。
const MinMatch = 3

// ParseTier 不檢查是否存在於賠率表，只做大小寫正規化。
func ParseTier(s string) Tier {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return Tier(b)
}

// TierSetting 單一票種的不可變設定。
//
// Prizes 以連線數為 key：{3: "$5", 4: "$10", 5: "$25"}。
type TierSetting struct {
	Tier           Tier           `yaml:"tier"            json:"tier"`
	Name           string         `yaml:"name"            json:"name"`
	ChainIndex     uint8          `yaml:"chain_index"     json:"chain_index"`
	PriceETH       string         `yaml:"price_eth"       json:"price_eth"`
	PriceUSD       string         `yaml:"price_usd"       json:"price_usd"`
	WinProbability float64        `yaml:"win_probability" json:"win_probability"`
	Prizes         map[int]string `yaml:"prizes"          json:"prizes"`

	priceETH decimal.Decimal
	priceUSD money.Amount
	prizes   []money.Amount // 依 MatchCounts 排序
}

func (ts *TierSetting) init() error {
	if ts.Tier == "" {
		return errs.Configurationf("tier: empty tier id")
	}
	ts.Tier = ParseTier(string(ts.Tier))
	if ts.Name == "" {
		ts.Name = string(ts.Tier)
	}
	if !(ts.WinProbability > 0 && ts.WinProbability < 1) {
		return errs.Configurationf("tier %s: win_probability must be in (0,1), got %v", ts.Tier, ts.WinProbability)
	}
	if ts.PriceETH != "" {
		d, err := decimal.NewFromString(ts.PriceETH)
		if err != nil {
			return errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "tier "+string(ts.Tier)+": invalid price_eth")
		}
		ts.priceETH = d
	}
	ts.priceUSD = money.Zero
	if ts.PriceUSD != "" {
		a, err := money.Parse(ts.PriceUSD)
		if err != nil {
			return errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "tier "+string(ts.Tier)+": invalid price_usd")
		}
		ts.priceUSD = a
	}
	if len(ts.Prizes) != len(MatchCounts) {
		return errs.Configurationf("tier %s: prizes must define exactly %v", ts.Tier, MatchCounts)
	}
	ts.prizes = make([]money.Amount, 0, len(MatchCounts))
	for _, n := range MatchCounts {
		raw, ok := ts.Prizes[n]
		if !ok {
			return errs.Configurationf("tier %s: missing prize for %d matches", ts.Tier, n)
		}
		a, err := money.Parse(raw)
		if err != nil {
			return errs.WrapKind(err, errs.Fatal, errs.KindConfiguration, "tier "+string(ts.Tier)+": invalid prize")
		}
		ts.prizes = append(ts.prizes, a)
	}
	return nil
}

// PrizeFor 回傳 n 連線（3/4/5）的獎金。
func (ts *TierSetting) PrizeFor(n int) (money.Amount, bool) {
	i := slices.Index(MatchCounts, n)
	if i < 0 || i >= len(ts.prizes) {
		return money.Zero, false
	}
	return ts.prizes[i], true
}

// PrizeList 回傳所有獎金（3、4、5 連線順序）。
func (ts *TierSetting) PrizeList() []money.Amount {
	return slices.Clone(ts.prizes)
}

func (ts *TierSetting) PriceInETH() decimal.Decimal { return ts.priceETH }

func (ts *TierSetting) PriceInUSD() money.Amount { return ts.priceUSD }

// OddsTable 票種 → 設定 的唯讀查表。
type OddsTable struct {
	order []Tier
	byID  map[Tier]*TierSetting
}

func newOddsTable(tiers []TierSetting) (*OddsTable, error) {
	if len(tiers) == 0 {
		return nil, errs.Configurationf("odds table: no tiers")
	}
	ot := &OddsTable{
		order: make([]Tier, 0, len(tiers)),
		byID:  make(map[Tier]*TierSetting, len(tiers)),
	}
	for i := range tiers {
		ts := &tiers[i]
		if err := ts.init(); err != nil {
			return nil, err
		}
		if _, dup := ot.byID[ts.Tier]; dup {
			return nil, errs.Configurationf("odds table: duplicate tier %s", ts.Tier)
		}
		ot.byID[ts.Tier] = ts
		ot.order = append(ot.order, ts.Tier)
	}
	return ot, nil
}

// Lookup 依票種查表；未知票種回傳 KindConfiguration 錯誤。
func (ot *OddsTable) Lookup(t Tier) (*TierSetting, error) {
	if ot == nil {
		return nil, errs.Configurationf("odds table not loaded")
	}
	ts, ok := ot.byID[t]
	if !ok {
		return nil, errs.Configurationf("unknown tier %q", t)
	}
	return ts, nil
}

// Tiers 依設定檔順序回傳票種。
func (ot *OddsTable) Tiers() []Tier {
	return slices.Clone(ot.order)
}

// Settings 依設定檔順序回傳票種設定。
func (ot *OddsTable) Settings() []*TierSetting {
	out := make([]*TierSetting, 0, len(ot.order))
	for _, t := range ot.order {
		out = append(out, ot.byID[t])
	}
	return out
}
