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

// Package strikelab 提供開獎引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個必需的地基組裝在一起：
//  1. Catalog：開獎設定目錄，定義有哪些 lab、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證同一個 seed 可重現同一串票。
//
// 設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS），Lab 本身不處理檔案路徑。
//
// 典型使用情境：
//   - 後端服務：BuildRuntime 建立 Session 註冊表，每個 Session 是一條 flow.Controller。
//   - 模擬器：NewSimulator 建立多台 Machine 自動遊玩，輸出中獎率與 RTP 報表。
package strikelab

import (
	"crypto/rand"
	"io/fs"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/strikelab/catalog"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/spec"
)

// Configs 把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 組裝器。
//
// 使用流程分成兩階段：
//   - 註冊階段：Register / RegisterAll 把設定檔放進 Catalog。
//   - 執行階段：Freeze 之後解析並快取所有設定，之後只讀。
type Lab struct {
	cat      *catalog.Catalog
	pf       core.PRNGFactory
	baseSeed int64
	seeds    *seedMaker

	mu       sync.RWMutex
	settings map[string]*spec.LabSetting
	names    []string
}

// New 建立 Lab，seed 由 crypto/rand 產生。
func New(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error")
	}
	return NewWithSeed(pf, cfgs, seed.Int64())
}

// NewWithSeed 以指定 baseSeed 建立 Lab；所有 Session / Machine 的 seed 都由它派生。
func NewWithSeed(pf core.PRNGFactory, cfgs []fs.FS, seed int64) (*Lab, error) {
	if pf == nil {
		return nil, errs.Configurationf("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.Configurationf("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat:      cata,
		pf:       pf,
		baseSeed: seed,
		seeds:    newSeedMaker(seed),
		settings: map[string]*spec.LabSetting{},
	}, nil
}

// NewAuto 建立並直接進入執行階段（RegisterAll + Freeze）。
func NewAuto(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(pf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	if err := lab.Freeze(); err != nil {
		return nil, err
	}
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔並以檔內 lab_name 註冊；任一檔失敗則整批不寫入。
func (l *Lab) RegisterAll() error {
	return l.cat.RegisterAll()
}

// Freeze 凍結目錄並解析所有設定；任一設定不合法即失敗。
func (l *Lab) Freeze() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cat.IsFrozen() {
		return nil
	}
	names := l.cat.Names()
	if len(names) == 0 {
		return errs.Configurationf("no lab registered")
	}
	settings := make(map[string]*spec.LabSetting, len(names))
	for _, n := range names {
		ls, err := l.cat.LabSetting(n)
		if err != nil {
			return errs.Wrap(err, "lab "+n)
		}
		settings[n] = ls
	}
	l.cat.Freeze()
	l.settings = settings
	l.names = names
	return nil
}

// Names 依名稱排序回傳所有 lab。
func (l *Lab) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.names...)
}

// Default 預設 lab（名稱排序第一個）。
func (l *Lab) Default() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.names) == 0 {
		return ""
	}
	return l.names[0]
}

// Setting 取得 lab 設定；name 為空時使用 Default。回傳的設定為唯讀共用。
func (l *Lab) Setting(name string) (*spec.LabSetting, string, error) {
	if name == "" {
		name = l.Default()
	}
	e, ok := l.cat.GetByName(name)
	if !ok {
		return nil, "", errs.NotFoundf("lab %q not found", name)
	}
	l.mu.RLock()
	ls, ok := l.settings[e.Name]
	l.mu.RUnlock()
	if !ok {
		return nil, "", errs.Stagef("lab %q not frozen", e.Name)
	}
	return ls, e.Name, nil
}

// Catalog 唯讀目錄。
func (l *Lab) Catalog() *catalog.Catalog {
	return l.cat
}

// BaseSeed 回傳建立時的 seed（審計用）。
func (l *Lab) BaseSeed() int64 {
	return l.baseSeed
}

// NextSeed 派生下一個子 seed（併發安全，不重複）。
func (l *Lab) NextSeed() int64 {
	return l.seeds.next()
}

// NewCore 以派生 seed 建立 Core。
func (l *Lab) NewCore() *core.Core {
	return l.NewCoreWithSeed(l.seeds.next())
}

func (l *Lab) NewCoreWithSeed(seed int64) *core.Core {
	return core.New(l.pf.New(seed))
}

// NewController 以 lab 設定與派生 seed 建立一條流程；d.Setting / d.Core 為空時自動補上。
func (l *Lab) NewController(name string, d flow.Deps) (*flow.Controller, error) {
	if d.Setting == nil {
		ls, _, err := l.Setting(name)
		if err != nil {
			return nil, err
		}
		d.Setting = ls
	}
	if d.Core == nil {
		d.Core = l.NewCore()
	}
	return flow.NewController(d)
}

// NewMachine 以派生 seed 建立自動遊玩機台。
func (l *Lab) NewMachine(name string) (*Machine, error) {
	return l.NewMachineWithSeed(name, l.seeds.next())
}

func (l *Lab) NewMachineWithSeed(name string, seed int64) (*Machine, error) {
	ls, n, err := l.Setting(name)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(n, ls, l.pf, seed)
}

// NewSimulator 建立模擬器，seed 由 Lab 派生。
func (l *Lab) NewSimulator(name string) (*Simulator, error) {
	return l.NewSimulatorWithSeed(name, l.seeds.next())
}

func (l *Lab) NewSimulatorWithSeed(name string, seed int64) (*Simulator, error) {
	ls, n, err := l.Setting(name)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(n, ls, l.pf, seed)
}

// NewDevSimulator 建立可審計的單線模擬器。
func (l *Lab) NewDevSimulator(name string) (*DevSimulator, error) {
	m, err := l.NewMachine(name)
	if err != nil {
		return nil, err
	}
	return &DevSimulator{m: m}, nil
}
