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
	"time"

	"github.com/zintix-labs/strikelab/errs"
)

// LabSetting 包含啟動開獎引擎所需的所有設定：賠率表、圖標、謎題幾何與流程參數。
type LabSetting struct {
	LabName       string         `yaml:"lab_name"       json:"lab_name"`
	SymbolSetting SymbolSetting  `yaml:"symbol_setting" json:"symbol_setting"`
	Tiers         []TierSetting  `yaml:"tiers"          json:"tiers"`
	Puzzles       PuzzleSetting  `yaml:"puzzles"        json:"puzzles"`
	Flow          FlowSetting    `yaml:"flow"           json:"flow"`
	Chain         ChainSetting   `yaml:"chain"          json:"chain"`
	History       HistorySetting `yaml:"history"        json:"history"`

	odds *OddsTable
}

// FlowSetting 流程參數。CompletionDelayMs 為完成後顯示結果前的停頓（僅供前端呈現）。
type FlowSetting struct {
	CompletionDelayMs int `yaml:"completion_delay_ms" json:"completion_delay_ms"`
}

func (f FlowSetting) CompletionDelay() time.Duration {
	return time.Duration(f.CompletionDelayMs) * time.Millisecond
}

// ChainSetting 模擬鏈的參數。
type ChainSetting struct {
	StrikeFeeETH string `yaml:"strike_fee_eth" json:"strike_fee_eth"`
}

// HistorySetting 歷史紀錄上限。
type HistorySetting struct {
	MaxRecords int `yaml:"max_records" json:"max_records"`
}

func (ls *LabSetting) init() error {
	if err := ls.SymbolSetting.init(); err != nil {
		return err
	}
	odds, err := newOddsTable(ls.Tiers)
	if err != nil {
		return err
	}
	ls.odds = odds
	if err := ls.Puzzles.init(); err != nil {
		return err
	}
	return ls.valid()
}

// valid 跨區塊檢查：字母表必須足以在「每個圖標最多 2 次」下填滿最大盤面。
func (ls *LabSetting) valid() error {
	if ls.Flow.CompletionDelayMs < 0 {
		return errs.Configurationf("flow: completion_delay_ms must >= 0")
	}
	if ls.History.MaxRecords < 0 {
		return errs.Configurationf("history: max_records must >= 0")
	}
	for _, k := range []PuzzleKind{KindClick, KindScratch} {
		size := ls.Puzzles.GridSize(k)
		if size < MinMatch {
			return errs.Configurationf("%s: grid size %d smaller than %d", k, size, MinMatch)
		}
		if 2*ls.SymbolSetting.Len() < size {
			return errs.Configurationf("%s: %d symbols cannot fill %d cells with at most 2 each", k, ls.SymbolSetting.Len(), size)
		}
		// 中獎盤面：扣掉 3 格中獎圖標後，其餘圖標仍須在上限 2 之內填滿
		if 2*(ls.SymbolSetting.Len()-1) < size-MinMatch {
			return errs.Configurationf("%s: %d symbols cannot fill a winner grid of %d cells", k, ls.SymbolSetting.Len(), size)
		}
	}
	return nil
}

// Odds 回傳唯讀賠率表。
func (ls *LabSetting) Odds() *OddsTable {
	return ls.odds
}
