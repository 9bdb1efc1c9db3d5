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

package strikelab

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/recorder"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/spec"
	"github.com/zintix-labs/strikelab/stats"
)

const capPrepare int = 64

// Simulator 用於大量自動遊玩，可建立多台機台並平行紀錄統計。
type Simulator struct {
	LabName   string
	ls        *spec.LabSetting
	pf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	mBuf      []*Machine
	rBuf      []*recorder.PlayRecorder
}

func newSimulatorWithSeed(name string, ls *spec.LabSetting, pf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		LabName:   name,
		ls:        ls,
		pf:        pf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.PlayRecorder, 0, capPrepare),
	}
	m, err := newMachineWithSeed(name, ls, pf, seed)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

// InitSeed 建立時的 seed；相同 seed 與參數可重現同一份報表。
func (s *Simulator) InitSeed() int64 { return s.initSeed }

// Sim 單線模擬：一台機台連續跑 rounds 張。
func (s *Simulator) Sim(tier spec.Tier, rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.Run(context.Background(), tier, rounds, 1, showpb)
}

// SimMP 平行模擬：mp 台機台各跑 rounds 張，總計 rounds*mp 張。
func (s *Simulator) SimMP(tier spec.Tier, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.Run(context.Background(), tier, rounds, mp, showpb)
}

// Run 是 Sim / SimMP 的共同實作；每台機台每 checkEvery 張檢查一次 ctx。
//
// 第一台機台沿用建立時的 seed，其餘由 seedMaker 派生，
// 所以 workers == 1 的結果與同 seed 的 Sim 完全相同。
func (s *Simulator) Run(ctx context.Context, tier spec.Tier, rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if workers <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepare(tier, workers); err != nil {
		return nil, 0, err
	}

	bar := pb.StartNew(rounds * workers)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	errc := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			errc[i] = s.work(ctx, s.mBuf[i], s.rBuf[i], tier, rounds, bar)
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	for _, err := range errc {
		if err != nil {
			return nil, used, err
		}
	}

	if workers == 1 {
		return s.rBuf[0].Done(), used, nil
	}
	st, err := recorder.MergePlayRecorder(s.rBuf[:workers])
	if err != nil {
		return nil, used, err
	}
	return st.Done(), used, nil
}

const checkEvery = 4096

func (s *Simulator) work(ctx context.Context, m *Machine, r *recorder.PlayRecorder, tier spec.Tier, rounds int, bar *pb.ProgressBar) error {
	for n := 0; n < rounds; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return errs.Wrap(err, "simulation aborted")
			}
		}
		p, err := m.Play(tier)
		if err != nil {
			return err
		}
		r.Record(p)
		bar.Increment()
	}
	return nil
}

// prepare 補足機台與紀錄器；紀錄器每次都重建，避免殘留上一輪的票種。
func (s *Simulator) prepare(tier spec.Tier, workers int) error {
	for len(s.mBuf) < workers {
		m, err := newMachineWithSeed(s.LabName, s.ls, s.pf, s.seedmaker.next())
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	for len(s.rBuf) < workers {
		r, err := recorder.NewPlayRecorder(s.ls, tier)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 可能被多個 goroutine 同時呼叫（Session 建立、SimMP），
// 以 CAS 迴圈保證每次呼叫取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
