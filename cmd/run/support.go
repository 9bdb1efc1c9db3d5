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

package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"io/fs"
	"math"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/zintix-labs/strikelab"
	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/perf"
	"github.com/zintix-labs/strikelab/spec"
	"github.com/zintix-labs/strikelab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	lab      string
	tier     string
	cfgDir   string
	worker   int
	rounds   int
	trace    int
	seed     int64
	out      string
	pprof    perf.Mode
	pprofDir string
}

func bindVar() error {
	var pp string
	flag.StringVar(&cfg.lab, "lab", "", "lab name (default: first registered)")
	flag.StringVar(&cfg.tier, "tier", "gold", "ticket tier: bronze|silver|gold")
	flag.StringVar(&cfg.cfgDir, "cfg", "", "extra directory of lab yaml files")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.rounds, "rounds", 1_000_000, "tickets per worker")
	flag.IntVar(&cfg.trace, "trace", 0, "print N audited tickets as json instead of a report")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.out, "out", "table", "report format: table|json|yaml")
	flag.StringVar(&pp, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.pprofDir, "pdir", perf.DefaultDir, "pprof output dir")

	flag.Parse()

	mode, err := perf.ParseMode(pp)
	if err != nil {
		return err
	}
	cfg.pprof = mode

	// 未指定或不合法的 seed 改用隨機 seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return errs.Wrap(err, "seed")
		}
		cfg.seed = seed.Int64()
	}
	return cfg.valid()
}

func (cfg *config) valid() error {
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.rounds < 1 {
		return errs.NewWarn("value err : rounds must > 0")
	}
	if cfg.trace < 0 {
		return errs.NewWarn("value err : trace must >= 0")
	}
	if _, err := stats.RenderFor(cfg.out, 0); err != nil {
		return err
	}
	return nil
}

func (cfg *config) sources() []fs.FS {
	srcs := []fs.FS{demo_configs.FS}
	if cfg.cfgDir != "" {
		srcs = append(srcs, os.DirFS(cfg.cfgDir))
	}
	return strikelab.Configs(srcs...)
}

// executeSimulator 解析並分支要執行的模擬器
func executeSimulator() error {
	lab, err := strikelab.NewWithSeed(core.Default(), cfg.sources(), cfg.seed)
	if err != nil {
		return err
	}
	if err := lab.RegisterAll(); err != nil {
		return err
	}
	if err := lab.Freeze(); err != nil {
		return err
	}
	tier := spec.ParseTier(strings.TrimSpace(cfg.tier))

	if cfg.trace > 0 {
		dev, err := lab.NewDevSimulator(cfg.lab)
		if err != nil {
			return err
		}
		rep, err := dev.Plays(tier, cfg.trace)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	s, err := lab.NewSimulatorWithSeed(cfg.lab, cfg.seed)
	if err != nil {
		return err
	}
	showpb := cfg.out == "table"
	if showpb {
		green := "\033[1;32m"
		reset := "\033[0m"
		p := message.NewPrinter(language.English)
		p.Printf("%s[LAB:%s] [TIER:%s] [WORKERS:%d] [TICKETS:%d] [SEED:%d]%s\n",
			green, s.LabName, tier, cfg.worker, cfg.worker*cfg.rounds, cfg.seed, reset)
	}

	var (
		st   *stats.StatReport
		used time.Duration
	)
	if cfg.worker == 1 {
		st, used, err = s.Sim(tier, cfg.rounds, showpb)
	} else {
		st, used, err = s.SimMP(tier, cfg.rounds, cfg.worker, showpb)
	}
	if err != nil {
		return err
	}
	return report(st, used)
}
