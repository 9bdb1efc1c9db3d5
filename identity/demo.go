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

package identity

import "context"

// DemoPlayerID Demo 模式下所有請求共用的玩家。
const DemoPlayerID = "demo"

// Demo 不驗證任何憑證。
type Demo struct {
	player Player
}

func NewDemo(id string) *Demo {
	if id == "" {
		id = DemoPlayerID
	}
	return &Demo{player: Player{ID: id, Demo: true}}
}

func (d *Demo) Mode() Mode { return ModeDemo }

func (d *Demo) Identify(ctx context.Context) (Player, error) {
	if err := ctx.Err(); err != nil {
		return Player{}, err
	}
	return d.player, nil
}
