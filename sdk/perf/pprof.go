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

// Package perf 以 runtime/pprof 包住一段模擬，輸出 cpu / heap / allocs profile（也可作為 PGO 的輸入）。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/strikelab/errs"
)

// DefaultDir profile 預設寫入路徑。
const DefaultDir = "build/profiling"

type Mode string

const (
	ModeOff    Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOff, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	}
	return ModeOff, errs.Configurationf("unknown pprof mode %q (cpu|heap|allocs)", s)
}

// Run 依 mode 執行 exe 並寫出 <dir>/<mode>.pprof；ModeOff 直接執行。
// exe 的錯誤優先回傳。
func Run(mode Mode, dir string, exe func() error) error {
	if mode == ModeOff {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, string(mode)+".pprof"))
	if err != nil {
		return errs.Wrap(err, "create profile")
	}
	defer f.Close()

	switch mode {
	case ModeCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return errs.Wrap(err, "start cpu profile")
		}
		err := exe()
		pprof.StopCPUProfile()
		return err
	case ModeHeap:
		if err := exe(); err != nil {
			return err
		}
		// 快照貼近最新的存活物件
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errs.Wrap(err, "write heap profile")
		}
		return nil
	case ModeAllocs:
		if err := exe(); err != nil {
			return err
		}
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile")
		}
		return nil
	}
	return errs.Configurationf("unknown pprof mode %q", mode)
}
