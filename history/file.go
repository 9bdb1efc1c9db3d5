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

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/money"
)

// File 以單一 JSON 檔保存所有玩家的紀錄；副檔名為 .zst 時以 zstd 壓縮。
// 每次異動都整檔重寫（先寫暫存檔再 rename）。
type File struct {
	mu      sync.Mutex
	path    string
	max     int
	players map[string][]Record
	now     func() time.Time
}

// OpenFile 讀取既有檔案；檔案不存在視為空紀錄。
func OpenFile(path string, max int) (*File, error) {
	f := &File{path: path, max: normalizeMax(max), players: make(map[string][]Record), now: time.Now}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) compressed() bool {
	return strings.HasSuffix(f.path, ".zst")
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(err, "history: read "+f.path)
	}
	if len(raw) == 0 {
		return nil
	}
	if f.compressed() {
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return errs.Wrap(err, "history: zstd reader")
		}
		defer dec.Close()
		if raw, err = io.ReadAll(dec); err != nil {
			return errs.Wrap(err, "history: zstd decode "+f.path)
		}
	}
	if err := json.Unmarshal(raw, &f.players); err != nil {
		return errs.Wrap(err, "history: decode "+f.path)
	}
	for p, list := range f.players {
		if len(list) > f.max {
			f.players[p] = list[:f.max]
		}
	}
	return nil
}

// save 呼叫端需持有鎖。
func (f *File) save() error {
	raw, err := json.Marshal(f.players)
	if err != nil {
		return errs.Wrap(err, "history: encode")
	}
	if f.compressed() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return errs.Wrap(err, "history: zstd writer")
		}
		raw = enc.EncodeAll(raw, nil)
		enc.Close()
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, "history: mkdir "+dir)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errs.Wrap(err, "history: write "+tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errs.Wrap(err, "history: rename "+tmp)
	}
	return nil
}

func (f *File) Append(ctx context.Context, player string, r Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r = prepare(r, f.now())
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.players[player]
	f.players[player] = prepend(prev, r, f.max)
	if err := f.save(); err != nil {
		f.players[player] = prev
		return Record{}, err
	}
	return r, nil
}

func (f *File) List(ctx context.Context, player string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.players[player]), nil
}

func (f *File) Clear(ctx context.Context, player string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.players[player]
	if !ok {
		return nil
	}
	delete(f.players, player)
	if err := f.save(); err != nil {
		f.players[player] = prev
		return err
	}
	return nil
}

func (f *File) TotalWinnings(ctx context.Context, player string) (money.Amount, error) {
	list, err := f.List(ctx, player)
	if err != nil {
		return money.Zero, err
	}
	return Total(list), nil
}
