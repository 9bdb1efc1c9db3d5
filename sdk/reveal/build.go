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

package reveal

import (
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/spec"
)

// Build 依謎題種類建立 Board。連線類需要盤面，其餘忽略 p。
func Build(kind spec.PuzzleKind, ps *spec.PuzzleSetting, p pattern.Pattern) (Board, error) {
	switch kind {
	case spec.KindClick:
		if len(p) != ps.Click.Size() {
			return nil, errs.InvalidPatternf("click: pattern has %d cells, want %d", len(p), ps.Click.Size())
		}
		return NewTileBoard(p, ps.Click.Cols), nil
	case spec.KindScratch:
		if len(p) != ps.Scratch.Grid.Size() {
			return nil, errs.InvalidPatternf("scratch: pattern has %d cells, want %d", len(p), ps.Scratch.Grid.Size())
		}
		return NewScratchBoard(p, ps.Scratch), nil
	case spec.KindSwipe:
		return NewSwipeBoard(ps.Swipe), nil
	case spec.KindDrag:
		return NewAssemblyBoard(ps.Drag), nil
	}
	return nil, errs.Configurationf("unknown puzzle kind %q", kind)
}
