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

// Package flow 串接購票、謎題、結果三個階段。
//
// Purchase → Puzzle → Results → Purchase，不得跳階。進入 Puzzle 一定伴隨一次新的中獎判定；
// 回到 Purchase 時所有票券、謎題、結果狀態完整重置。
package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/sdk/money"
	"github.com/zintix-labs/strikelab/sdk/notify"
	"github.com/zintix-labs/strikelab/sdk/outcome"
	"github.com/zintix-labs/strikelab/sdk/pattern"
	"github.com/zintix-labs/strikelab/sdk/prize"
	"github.com/zintix-labs/strikelab/sdk/reveal"
	"github.com/zintix-labs/strikelab/sdk/sampler"
	"github.com/zintix-labs/strikelab/spec"
)

// finishTimeout 完成後鏈上開刮與寫入紀錄的時限。
const finishTimeout = 30 * time.Second

// Deps Controller 的協作者。Setting、Core、Wallet、History、Identity 必填。
type Deps struct {
	Setting  *spec.LabSetting
	Core     *core.Core
	Wallet   chain.Wallet
	History  history.Store
	Identity identity.Provider
	Resolver prize.PrizeResolver
	Events   *notify.Subject[Event]
	Log      *slog.Logger
	Now      func() time.Time
}

// Controller 單一玩家的一條遊玩流程。併發安全：所有狀態轉移都在 mu 之下完成，
// 鏈上與儲存體呼叫在鎖外進行。
type Controller struct {
	mu sync.Mutex

	id       string
	setting  *spec.LabSetting
	core     *core.Core
	decider  *outcome.Decider
	synth    *pattern.Synthesizer
	kinds    []spec.PuzzleKind
	kindPick sampler.Picker
	resolver prize.PrizeResolver
	wallet   chain.Wallet
	store    history.Store
	ident    identity.Provider
	events   *notify.Subject[Event]
	log      *slog.Logger
	now      func() time.Time
	closed   bool

	// 以下為單張票的狀態，reset 全部清空
	stage       Stage
	pending     bool
	player      identity.Player
	decision    *outcome.Decision
	kind        spec.PuzzleKind
	ticket      *chain.Purchase
	board       reveal.Board
	completion  *reveal.Completion
	matchCount  int
	prize       *money.Amount
	completedAt time.Time
	strikeTx    string
	record      *history.Record
	lastErr     string
}

// NewController 建立停在 Purchase 階段的流程。
func NewController(d Deps) (*Controller, error) {
	if d.Setting == nil || d.Core == nil || d.Wallet == nil || d.History == nil || d.Identity == nil {
		return nil, errs.Configurationf("flow: missing dependency")
	}
	pick, err := sampler.NewPicker(d.Setting.Puzzles.WeightList())
	if err != nil {
		return nil, err
	}
	c := &Controller{
		id:       uuid.NewString(),
		setting:  d.Setting,
		core:     d.Core,
		decider:  outcome.NewDecider(d.Setting.Odds(), d.Core),
		synth:    pattern.NewSynthesizer(d.Core, d.Setting.SymbolSetting.Len()),
		kinds:    d.Setting.Puzzles.KindList(),
		kindPick: pick,
		resolver: d.Resolver,
		wallet:   d.Wallet,
		store:    d.History,
		ident:    d.Identity,
		events:   d.Events,
		log:      d.Log,
		now:      d.Now,
		stage:    StagePurchase,
	}
	if c.resolver == nil {
		c.resolver = prize.NewResolver(d.Setting.Odds())
	}
	if c.events == nil {
		c.events = notify.NewSubject[Event](0)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// ID 流程（Session）識別碼。
func (c *Controller) ID() string { return c.id }

// Events 流程事件主題。
func (c *Controller) Events() *notify.Subject[Event] { return c.events }

// Player 目前這張票的玩家；回到 Purchase 後為零值。
func (c *Controller) Player() identity.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// Purchase 購票並進入 Puzzle。
//
// 順序：身分 → 賠率表查詢 → 鏈上購票（鎖外，可失敗）→ 中獎判定（恰好一次）→ 抽謎題種類 → 建立盤面。
// 任何一步失敗都停在 Purchase，不留下部分狀態。
func (c *Controller) Purchase(ctx context.Context, tier spec.Tier) (State, error) {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return State{}, err
	}
	if c.stage != StagePurchase {
		st := c.stage
		c.mu.Unlock()
		return State{}, errs.Stagef("purchase not allowed in stage %s", st)
	}
	if c.pending {
		c.mu.Unlock()
		return State{}, errs.Stagef("purchase already pending")
	}
	c.pending = true
	c.lastErr = ""
	c.mu.Unlock()

	player, ts, purchase, err := c.buy(ctx, tier)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.lastErr = err.Error()
		if errs.IsKind(err, errs.KindConfiguration) {
			c.resetLocked()
			c.lastErr = err.Error()
		}
		c.log.Warn("purchase failed", slog.String("session", c.id), slog.String("tier", string(tier)), slog.Any("err", err))
		return c.snapshotLocked(), err
	}
	if c.closed {
		return State{}, errs.Stagef("session closed")
	}

	d, err := c.decider.Decide(ts.Tier)
	if err != nil {
		return c.failLocked(err)
	}
	kind := c.kinds[c.kindPick.Pick(c.core)]
	var p pattern.Pattern
	if size := c.setting.Puzzles.GridSize(kind); size > 0 {
		if p, err = c.synth.Synthesize(d.IsWinner, size); err != nil {
			return c.failLocked(err)
		}
	}
	board, err := reveal.Build(kind, &c.setting.Puzzles, p)
	if err != nil {
		return c.failLocked(err)
	}
	board.OnComplete(func(comp reveal.Completion) {
		c.completion = &comp
	})

	c.player = player
	c.decision = &d
	c.kind = kind
	c.ticket = &purchase
	c.board = board
	c.stage = StagePuzzle

	c.log.Info("ticket purchased",
		slog.String("session", c.id),
		slog.String("player", player.ID),
		slog.String("tier", string(d.Tier)),
		slog.String("puzzle", string(kind)),
		slog.String("ticket", purchase.TicketID),
	)
	st := c.snapshotLocked()
	c.events.Publish(Event{Kind: EventPurchased, Session: c.id, Player: player.ID, State: st})
	return st, nil
}

// buy 在鎖外執行可能阻塞的呼叫。
func (c *Controller) buy(ctx context.Context, tier spec.Tier) (identity.Player, *spec.TierSetting, chain.Purchase, error) {
	player, err := c.ident.Identify(ctx)
	if err != nil {
		return identity.Player{}, nil, chain.Purchase{}, err
	}
	ts, err := c.setting.Odds().Lookup(tier)
	if err != nil {
		return identity.Player{}, nil, chain.Purchase{}, err
	}
	owner := player.Address
	if owner == "" {
		owner = player.ID
	}
	purchase, err := c.wallet.BuyTicket(ctx, owner, ts.Tier)
	if err != nil {
		if _, ok := errs.AsErr(err); !ok && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = errs.WrapKind(err, errs.Warn, errs.KindChain, "buy ticket failed")
		}
		return identity.Player{}, nil, chain.Purchase{}, err
	}
	return player, ts, purchase, nil
}

// failLocked 購票後建立謎題失敗（設定錯誤）：回到 Purchase 並完整重置。
func (c *Controller) failLocked(err error) (State, error) {
	c.resetLocked()
	c.lastErr = err.Error()
	c.log.Error("puzzle setup failed", slog.String("session", c.id), slog.Any("err", err))
	return c.snapshotLocked(), err
}

// RevealTile 翻牌謎題點擊。
func (c *Controller) RevealTile(ctx context.Context, index int) (reveal.Step, error) {
	return c.apply(ctx, spec.KindClick, func(b reveal.Board) (reveal.Step, error) {
		return b.(*reveal.TileBoard).Reveal(index)
	})
}

// Scratch 刮刮樂取樣點。
func (c *Controller) Scratch(ctx context.Context, points []reveal.Point) (reveal.Step, error) {
	return c.apply(ctx, spec.KindScratch, func(b reveal.Board) (reveal.Step, error) {
		return b.(*reveal.ScratchBoard).Stroke(points), nil
	})
}

// Swipe 滑動揭露取樣點。
func (c *Controller) Swipe(ctx context.Context, points []reveal.Point) (reveal.Step, error) {
	return c.apply(ctx, spec.KindSwipe, func(b reveal.Board) (reveal.Step, error) {
		return b.(*reveal.SwipeBoard).Stroke(points), nil
	})
}

// DropPiece 拼圖碎片放下。
func (c *Controller) DropPiece(ctx context.Context, piece int, dx, dy float64) (reveal.Step, error) {
	return c.apply(ctx, spec.KindDrag, func(b reveal.Board) (reveal.Step, error) {
		return b.(*reveal.AssemblyBoard).Drop(piece, dx, dy)
	})
}

// apply 把輸入事件交給 Board；若這一步觸發完成則結算並進入 Results。
// Results 階段的輸入視為完成後的多餘事件，直接忽略。
func (c *Controller) apply(ctx context.Context, kind spec.PuzzleKind, fn func(reveal.Board) (reveal.Step, error)) (reveal.Step, error) {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return reveal.Step{}, err
	}
	switch c.stage {
	case StageResults:
		step := reveal.Step{Done: true}
		if c.board != nil {
			step.Progress = c.board.Progress()
		}
		c.mu.Unlock()
		return step, nil
	case StagePuzzle:
	default:
		st := c.stage
		c.mu.Unlock()
		return reveal.Step{}, errs.Stagef("no puzzle in stage %s", st)
	}
	if c.kind != kind {
		k := c.kind
		c.mu.Unlock()
		return reveal.Step{}, errs.Stagef("puzzle is %s, not %s", k, kind)
	}

	step, err := fn(c.board)
	if err != nil || c.completion == nil {
		c.mu.Unlock()
		return step, err
	}
	fin, err := c.completeLocked()
	c.mu.Unlock()
	if err != nil {
		return step, err
	}
	// 結果已經確定並顯示，開刮與紀錄不隨請求取消而中斷
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	c.finish(fctx, fin)
	return step, nil
}

// finishing 完成後需在鎖外執行的工作。
type finishing struct {
	player   identity.Player
	ticketID string
	prize    *money.Amount
	record   history.Record
	state    State
}

// completeLocked 結算獎金並轉入 Results。
func (c *Controller) completeLocked() (finishing, error) {
	comp := *c.completion
	amt, err := c.resolver.ForCompletion(*c.decision, comp, c.core)
	if err != nil {
		c.resetLocked()
		c.lastErr = err.Error()
		return finishing{}, err
	}
	c.matchCount = comp.MatchCount
	c.prize = amt
	c.completedAt = c.now()
	c.stage = StageResults

	rec := history.Record{
		Timestamp:   c.completedAt,
		Tier:        c.decision.Tier,
		PuzzleType:  c.kind,
		IsWinner:    c.decision.IsWinner,
		PrizeAmount: history.Prize(amt),
		MatchCount:  comp.MatchCount,
	}
	if c.ticket != nil {
		rec.TicketID = c.ticket.TicketID
	}

	c.log.Info("puzzle completed",
		slog.String("session", c.id),
		slog.String("puzzle", string(c.kind)),
		slog.Bool("winner", c.decision.IsWinner),
		slog.Int("matches", comp.MatchCount),
		slog.String("prize", prizeLabel(amt)),
	)
	st := c.snapshotLocked()
	c.events.Publish(Event{Kind: EventCompleted, Session: c.id, Player: c.player.ID, State: st})
	return finishing{player: c.player, ticketID: rec.TicketID, prize: amt, record: rec, state: st}, nil
}

// finish 鏈上開刮與寫入歷史紀錄。兩者都是盡力而為：失敗只記錄，不影響已確定的結果。
func (c *Controller) finish(ctx context.Context, f finishing) {
	var strikeTx string
	if f.ticketID != "" {
		c.mu.Lock()
		seed := c.core.Randomness()
		c.mu.Unlock()
		receipt, err := c.wallet.StrikeTicket(ctx, f.ticketID, seed)
		if err != nil {
			c.log.Warn("strike ticket failed", slog.String("session", c.id), slog.String("ticket", f.ticketID), slog.Any("err", err))
		} else {
			strikeTx = receipt.TxHash
			if s, ok := c.wallet.(chain.Settler); ok {
				var amt *decimal.Decimal
				if f.prize != nil {
					d := f.prize.Decimal()
					amt = &d
				}
				if err := s.Settle(ctx, f.ticketID, amt); err != nil {
					c.log.Warn("settle ticket failed", slog.String("ticket", f.ticketID), slog.Any("err", err))
				}
			}
		}
	}

	rec, err := c.store.Append(ctx, f.player.ID, f.record)

	c.mu.Lock()
	sameTicket := c.stage == StageResults && c.ticket != nil && c.ticket.TicketID == f.ticketID
	if sameTicket {
		c.strikeTx = strikeTx
		if err == nil {
			c.record = &rec
		} else {
			c.lastErr = err.Error()
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Error("history append failed", slog.String("session", c.id), slog.Any("err", err))
		return
	}
	c.events.Publish(Event{Kind: EventHistoryChanged, Session: c.id, Player: f.player.ID, State: f.state, Record: &rec})
}

// PlayAgain Results → Purchase，完整重置。
func (c *Controller) PlayAgain() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usableLocked(); err != nil {
		return State{}, err
	}
	if c.stage != StageResults {
		return State{}, errs.Stagef("play again not allowed in stage %s", c.stage)
	}
	c.resetLocked()
	st := c.snapshotLocked()
	c.events.Publish(Event{Kind: EventReset, Session: c.id, State: st})
	return st, nil
}

// Abandon 中途放棄：Puzzle → Purchase，丟棄謎題狀態，不結算也不寫入紀錄。
func (c *Controller) Abandon() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usableLocked(); err != nil {
		return State{}, err
	}
	if c.stage != StagePuzzle {
		return State{}, errs.Stagef("nothing to abandon in stage %s", c.stage)
	}
	c.log.Info("puzzle abandoned", slog.String("session", c.id), slog.String("puzzle", string(c.kind)))
	c.resetLocked()
	st := c.snapshotLocked()
	c.events.Publish(Event{Kind: EventReset, Session: c.id, State: st})
	return st, nil
}

// Snapshot 目前狀態的拷貝。
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close 丟棄謎題並關閉事件主題；之後所有操作回傳錯誤。
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.board != nil {
		c.board.Close()
	}
	c.mu.Unlock()
	c.events.Close()
}

func prizeLabel(a *money.Amount) string {
	if a == nil {
		return "none"
	}
	return a.String()
}

func (c *Controller) usableLocked() error {
	if c.closed {
		return errs.Stagef("session closed")
	}
	return nil
}

// resetLocked 回到初始狀態；謎題實例關閉並解除監聽。
func (c *Controller) resetLocked() {
	if c.board != nil {
		c.board.Close()
	}
	c.stage = StagePurchase
	c.player = identity.Player{}
	c.decision = nil
	c.kind = ""
	c.ticket = nil
	c.board = nil
	c.completion = nil
	c.matchCount = 0
	c.prize = nil
	c.completedAt = time.Time{}
	c.strikeTx = ""
	c.record = nil
	c.lastErr = ""
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Stage:       c.stage,
		Pending:     c.pending,
		MatchCount:  c.matchCount,
		CompletedAt: c.completedAt,
		StrikeTx:    c.strikeTx,
		LastError:   c.lastErr,
	}
	if c.decision != nil {
		st.Tier = c.decision.Tier
		st.IsWinner = c.decision.IsWinner
	}
	st.PuzzleType = c.kind
	if c.ticket != nil {
		t := *c.ticket
		st.Ticket = &t
	}
	if c.board != nil {
		v := c.board.View()
		st.Puzzle = &v
	}
	if c.prize != nil {
		a := *c.prize
		st.PrizeAmount = &a
	}
	if !c.completedAt.IsZero() {
		st.ResultsAt = c.completedAt.Add(c.setting.Flow.CompletionDelay())
	}
	if c.record != nil {
		r := *c.record
		st.Record = &r
	}
	return st
}
