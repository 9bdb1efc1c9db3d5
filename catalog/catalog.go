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

package catalog

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/spec"
)

var (
	ErrDupName   = errs.Configurationf("duplicate lab name")
	ErrDupConfig = errs.Configurationf("duplicate config name")
)

// Entry 一組開獎設定（lab）：名稱 → 設定檔。
type Entry struct {
	Name       string
	ConfigName string
}

// Summary 對外列舉用的設定摘要。
type Summary struct {
	Name    string      `json:"name"`
	Config  string      `json:"config"`
	Tiers   []spec.Tier `json:"tiers"`
	Symbols int         `json:"symbols"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 設定檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register 原子註冊：任一筆不合法則整批不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		metas[i].Name = normName(metas[i].Name)
		meta := metas[i]
		if meta.Name == "" {
			return errs.Configurationf("lab name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.Configurationf("config file not found: %s", meta.ConfigName)
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll 掃描所有設定檔，以檔內 lab_name 為名稱註冊。
func (c *Catalog) RegisterAll() error {
	files := c.config.Names()
	metas := make([]Entry, 0, len(files))
	for _, name := range files {
		if _, ok := c.unique[name]; ok {
			continue
		}
		src, _ := c.config.GetFS(name)
		ls, err := spec.GetLabSettingFromFS(src, name)
		if err != nil {
			return errs.Wrap(err, "catalog scan "+name)
		}
		metas = append(metas, Entry{Name: ls.LabName, ConfigName: name})
	}
	return c.Register(metas...)
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func validFileName(file string) error {
	if file == "" {
		return errs.Configurationf("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.Configurationf("invalid config filename: %q (must be a basename; no / \\ :)", file)
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.Configurationf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.Configurationf("invalid config filename: %q (cannot start with '.')", file)
	}
	return nil
}

func isConfigFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

// LabSetting 讀取並初始化名稱對應的設定，每次呼叫都回傳新的實例。
func (c *Catalog) LabSetting(name string) (*spec.LabSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NotFoundf("lab %q does not exist in catalog", name)
	}
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	return spec.GetLabSettingFromFS(src, e.ConfigName)
}

// Summaries 依名稱排序列出所有設定摘要。
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.All() {
		ls, err := c.LabSetting(e.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Name:    e.Name,
			Config:  e.ConfigName,
			Tiers:   ls.Odds().Tiers(),
			Symbols: ls.SymbolSetting.Len(),
		})
	}
	return out, nil
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.Configurationf("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.Configurationf("fs[%d] is nil", i)
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 設定目錄必須是平的，只允許根目錄 "."
				if path == "." {
					return nil
				}
				return errs.Configurationf("config FS must be flat (no subdirectories): %q", path)
			}
			if !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Configurationf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Names 依字母序列出所有設定檔名。
func (m *multiFS) Names() []string {
	out := make([]string, 0, len(m.index))
	for n := range m.index {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Sources exposes config FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
