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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/sdk/notify"
)

const (
	DefaultMaxSessions = 1024
	DefaultIdleTTL     = 30 * time.Minute
)

// RuntimeDeps 所有 Session 共用的協作者。Wallet、History、Identity 必填。
type RuntimeDeps struct {
	Wallet      chain.Wallet
	History     history.Store
	Identity    identity.Provider
	Log         *slog.Logger
	MaxSessions int
	IdleTTL     time.Duration
	Now         func() time.Time
}

// Session 註冊表中的一條流程。
type Session struct {
	*flow.Controller
	Lab  string
	seen atomic.Int64 // unix nano
	stop func()
}

// LastSeen 最後一次被存取的時間。
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.seen.Load())
}

// Runtime Session 註冊表。
//
// 每個 Session 的事件都會轉發到 Runtime 的共用主題，供歷史紀錄推播使用。
type Runtime struct {
	lab    *Lab
	deps   RuntimeDeps
	events *notify.Subject[flow.Event]

	mu       sync.Mutex
	sessions map[string]*Session

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// BuildRuntime 以凍結後的 Lab 建立 Runtime。
func (l *Lab) BuildRuntime(d RuntimeDeps) (*Runtime, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.Stagef("lab must be frozen before building runtime")
	}
	if d.Wallet == nil || d.History == nil || d.Identity == nil {
		return nil, errs.Configurationf("runtime: missing dependency")
	}
	if d.MaxSessions <= 0 {
		d.MaxSessions = DefaultMaxSessions
	}
	if d.IdleTTL <= 0 {
		d.IdleTTL = DefaultIdleTTL
	}
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Runtime{
		lab:      l,
		deps:     d,
		events:   notify.NewSubject[flow.Event](256),
		sessions: make(map[string]*Session, 64),
		done:     make(chan struct{}),
	}, nil
}

func (rt *Runtime) Lab() *Lab { return rt.lab }

func (rt *Runtime) History() history.Store { return rt.deps.History }

func (rt *Runtime) Identity() identity.Provider { return rt.deps.Identity }

func (rt *Runtime) Wallet() chain.Wallet { return rt.deps.Wallet }

// Events 所有 Session 的事件匯流。
func (rt *Runtime) Events() *notify.Subject[flow.Event] { return rt.events }

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "runtime canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	return nil
}

// NewSession 以 lab 設定（空字串為預設）建立新 Session。
func (rt *Runtime) NewSession(ctx context.Context, lab string) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	ls, name, err := rt.lab.Setting(lab)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	err = rt.admitLocked()
	rt.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctrl, err := rt.lab.NewController(name, flow.Deps{
		Setting:  ls,
		Wallet:   rt.deps.Wallet,
		History:  rt.deps.History,
		Identity: rt.deps.Identity,
		Log:      rt.deps.Log,
		Now:      rt.deps.Now,
	})
	if err != nil {
		return nil, err
	}
	s := &Session{Controller: ctrl, Lab: name}
	s.seen.Store(rt.deps.Now().UnixNano())

	sub, cancel := ctrl.Events().Subscribe()
	s.stop = cancel
	go func() {
		for ev := range sub {
			rt.events.Publish(ev)
		}
	}()

	// 建立期間可能有其他 Session 插入或 Runtime 已關閉，插入前在鎖內重新檢查
	rt.mu.Lock()
	if err := rt.admitLocked(); err != nil {
		rt.mu.Unlock()
		rt.closeSession(s)
		return nil, err
	}
	rt.sessions[ctrl.ID()] = s
	rt.mu.Unlock()
	rt.deps.Log.Debug("session created", slog.String("session", ctrl.ID()), slog.String("lab", name))
	return s, nil
}

// admitLocked 確認還能再加入一個 Session；滿了先清一次閒置的。
func (rt *Runtime) admitLocked() error {
	if rt.closed.Load() {
		return errs.NewFatal("runtime closed: " + rt.ClosedReason())
	}
	if len(rt.sessions) >= rt.deps.MaxSessions {
		rt.sweepLocked(rt.deps.Now())
	}
	if len(rt.sessions) >= rt.deps.MaxSessions {
		return errs.Warnf("too many sessions (max %d)", rt.deps.MaxSessions)
	}
	return nil
}

// Session 取得 Session 並更新存取時間。
func (rt *Runtime) Session(ctx context.Context, id string) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	rt.mu.Lock()
	s, ok := rt.sessions[id]
	rt.mu.Unlock()
	if !ok {
		return nil, errs.NotFoundf("session %q not found", id)
	}
	s.seen.Store(rt.deps.Now().UnixNano())
	return s, nil
}

// CloseSession 放棄進行中的謎題並移除 Session。
func (rt *Runtime) CloseSession(id string) error {
	rt.mu.Lock()
	s, ok := rt.sessions[id]
	if ok {
		delete(rt.sessions, id)
	}
	rt.mu.Unlock()
	if !ok {
		return errs.NotFoundf("session %q not found", id)
	}
	rt.closeSession(s)
	return nil
}

func (rt *Runtime) closeSession(s *Session) {
	if s.Snapshot().Stage == flow.StagePuzzle {
		_, _ = s.Abandon()
	}
	s.Close()
	if s.stop != nil {
		s.stop()
	}
}

// Sessions 目前的 Session 數。
func (rt *Runtime) Sessions() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.sessions)
}

// Sweep 移除閒置超過 IdleTTL 的 Session，回傳移除數量。
func (rt *Runtime) Sweep() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.sweepLocked(rt.deps.Now())
}

func (rt *Runtime) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range rt.sessions {
		if now.Sub(s.LastSeen()) < rt.deps.IdleTTL {
			continue
		}
		delete(rt.sessions, id)
		rt.closeSession(s)
		n++
	}
	if n > 0 {
		rt.deps.Log.Info("idle sessions evicted", slog.Int("count", n))
	}
	return n
}

// Run 定期清理閒置 Session，直到 ctx 結束或 Runtime 關閉。
func (rt *Runtime) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.done:
			return
		case <-t.C:
			rt.Sweep()
		}
	}
}

// Close 關閉所有 Session 並進入關閉狀態；可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)

		rt.mu.Lock()
		all := rt.sessions
		rt.sessions = map[string]*Session{}
		rt.mu.Unlock()
		for _, s := range all {
			rt.closeSession(s)
		}
		rt.events.Close()
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
