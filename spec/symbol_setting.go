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

	"github.com/zintix-labs/strikelab/errs"
)

// SymbolSetting 圖標字母表。盤面上以索引（SymbolID）表示，顯示時再查回字串。
type SymbolSetting struct {
	Symbols []string `yaml:"symbols" json:"symbols"`
}

func (ss *SymbolSetting) init() error {
	if len(ss.Symbols) < 2 {
		return errs.Configurationf("symbols: need at least 2 symbols, got %d", len(ss.Symbols))
	}
	for i, s := range ss.Symbols {
		if s == "" {
			return errs.Configurationf("symbols: empty symbol at %d", i)
		}
		if slices.Index(ss.Symbols, s) != i {
			return errs.Configurationf("symbols: duplicate symbol %q", s)
		}
	}
	return nil
}

// Len 字母表大小。
func (ss *SymbolSetting) Len() int { return len(ss.Symbols) }

// Name 回傳索引對應的圖標，越界回傳 "?"。
func (ss *SymbolSetting) Name(id int) string {
	if id < 0 || id >= len(ss.Symbols) {
		return "?"
	}
	return ss.Symbols[id]
}
