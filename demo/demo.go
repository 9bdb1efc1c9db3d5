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

// Package demo 以內嵌的示範設定組出可直接遊玩的 Lab 與 Runtime。
package demo

import (
	"io/fs"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/server/logger"
	"github.com/zintix-labs/strikelab/server/svrcfg"
)

// New 以內嵌設定建立已凍結的 Lab；extra 會疊加在示範設定之後。
func New(extra ...fs.FS) (*strikelab.Lab, error) {
	cfgs := append(strikelab.Configs(demo_configs.FS), extra...)
	lab, err := strikelab.NewAuto(core.Default(), cfgs)
	if err != nil {
		return nil, errs.Wrap(err, "new strikelab failed")
	}
	return lab, nil
}

// Wallet 依 lab 設定建立模擬鏈錢包。
func Wallet(lab *strikelab.Lab, name string) (*chain.Simulated, error) {
	ls, _, err := lab.Setting(name)
	if err != nil {
		return nil, err
	}
	fee, err := decimal.NewFromString(ls.Chain.StrikeFeeETH)
	if err != nil {
		return nil, errs.Configurationf("invalid strike fee %q", ls.Chain.StrikeFeeETH)
	}
	return chain.NewSimulated(ls.Odds(), fee), nil
}

// NewRuntime 建立記憶體歷史、Demo 身分的 Runtime。
func NewRuntime(lab *strikelab.Lab, log *slog.Logger) (*strikelab.Runtime, error) {
	ls, _, err := lab.Setting("")
	if err != nil {
		return nil, err
	}
	w, err := Wallet(lab, "")
	if err != nil {
		return nil, err
	}
	return lab.BuildRuntime(strikelab.RuntimeDeps{
		Wallet:   w,
		History:  history.NewMemory(ls.History.MaxRecords),
		Identity: identity.NewDemo(identity.DemoPlayerID),
		Log:      log,
	})
}

// NewServerConfig 回傳開啟模擬端點的本機伺服器設定。
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := New()
	if err != nil {
		return nil, err
	}
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	rt, err := NewRuntime(lab, log)
	if err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{
		Log:        log,
		Runtime:    rt,
		SimEnabled: true,
	}, nil
}
