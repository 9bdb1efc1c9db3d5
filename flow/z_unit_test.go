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

package flow_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/strikelab/chain"
	"github.com/zintix-labs/strikelab/demo/demo_configs"
	"github.com/zintix-labs/strikelab/errs"
	"github.com/zintix-labs/strikelab/flow"
	"github.com/zintix-labs/strikelab/history"
	"github.com/zintix-labs/strikelab/identity"
	"github.com/zintix-labs/strikelab/sdk/core"
	"github.com/zintix-labs/strikelab/spec"
)

type fixture struct {
	c      *flow.Controller
	wallet *chain.Simulated
	store  *history.Memory
}

// 抽樣順序：中獎判定、謎題種類（drag/click/scratch 各 1/3）、盤面合成。
func newFixture(t *testing.T, wallet chain.Wallet, ident identity.Provider, seq ...float64) fixture {
	t.Helper()
	ls, err := spec.GetLabSettingFromFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	sim := chain.NewSimulated(ls.Odds(), decimal.RequireFromString(ls.Chain.StrikeFeeETH))
	if wallet == nil {
		wallet = sim
	}
	if ident == nil {
		ident = identity.NewDemo("")
	}
	store := history.NewMemory(ls.History.MaxRecords)
	c, err := flow.NewController(flow.Deps{
		Setting:  ls,
		Core:     core.NewFromSource(core.NewSequence(seq...)),
		Wallet:   wallet,
		History:  store,
		Identity: ident,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(c.Close)
	return fixture{c: c, wallet: sim, store: store}
}

func revealAll(t *testing.T, c *flow.Controller, n int) {
	t.Helper()
	completions := 0
	for i := 0; i < n; i++ {
		st, err := c.RevealTile(context.Background(), i)
		if err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
		if st.Completion != nil {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("completions = %d", completions)
	}
}

func TestGoldWinnerClickEndToEnd(t *testing.T) {
	// 0.0 → 中獎；0.5 → click；0.0 → 圖標 0；0.5 → 目標 4
	f := newFixture(t, nil, nil, 0.0, 0.5, 0.0, 0.5)
	events, cancel := f.c.Events().Subscribe()
	defer cancel()

	st, err := f.c.Purchase(context.Background(), spec.Gold)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if st.Stage != flow.StagePuzzle || !st.IsWinner || st.PuzzleType != spec.KindClick || st.Ticket == nil {
		t.Fatalf("after purchase = %+v", st)
	}
	for _, cell := range st.Puzzle.Cells {
		if cell.Revealed || cell.Symbol != -1 {
			t.Fatalf("unrevealed symbol leaked: %+v", cell)
		}
	}

	revealAll(t, f.c, 16)
	st = f.c.Snapshot()
	if st.Stage != flow.StageResults || st.MatchCount != 4 {
		t.Fatalf("results = %+v", st)
	}
	if st.PrizeAmount == nil || st.PrizeAmount.String() != "$50" {
		t.Fatalf("prize = %v", st.PrizeAmount)
	}
	if st.ResultsAt.Sub(st.CompletedAt) != 500*time.Millisecond {
		t.Fatalf("results delay = %v", st.ResultsAt.Sub(st.CompletedAt))
	}
	if st.StrikeTx == "" || st.Record == nil {
		t.Fatalf("strike/record missing: %+v", st)
	}

	list, _ := f.store.List(context.Background(), identity.DemoPlayerID)
	if len(list) != 1 || *list[0].PrizeAmount != "$50" || list[0].MatchCount != 4 || list[0].TicketID != st.Ticket.TicketID {
		t.Fatalf("history = %+v", list)
	}
	rec, err := f.wallet.GetTicket(context.Background(), st.Ticket.TicketID)
	if err != nil || !rec.Claimed {
		t.Fatalf("ticket not struck: %+v %v", rec, err)
	}

	want := []flow.EventKind{flow.EventPurchased, flow.EventCompleted, flow.EventHistoryChanged}
	for _, k := range want {
		select {
		case ev := <-events:
			if ev.Kind != k {
				t.Fatalf("event = %s, want %s", ev.Kind, k)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %s", k)
		}
	}
}

func TestInputsAfterCompletionIgnored(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5, 0.0, 0.5)
	f.c.Purchase(context.Background(), spec.Gold)
	revealAll(t, f.c, 16)
	st, err := f.c.RevealTile(context.Background(), 3)
	if err != nil || st.Completion != nil || !st.Done {
		t.Fatalf("post-completion input = %+v %v", st, err)
	}
	list, _ := f.store.List(context.Background(), identity.DemoPlayerID)
	if len(list) != 1 {
		t.Fatalf("history len = %d", len(list))
	}
}

func TestCompletionSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5, 0.0, 0.5)
	st, err := f.c.Purchase(context.Background(), spec.Gold)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	for i := 0; i < 15; i++ {
		if _, err := f.c.RevealTile(context.Background(), i); err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
	}
	// 最後一格的請求已被取消，結算仍須完成
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	step, err := f.c.RevealTile(ctx, 15)
	if err != nil || step.Completion == nil {
		t.Fatalf("last reveal = %+v %v", step, err)
	}
	got := f.c.Snapshot()
	if got.Record == nil || got.StrikeTx == "" || got.LastError != "" {
		t.Fatalf("results after cancel = %+v", got)
	}
	list, _ := f.store.List(context.Background(), identity.DemoPlayerID)
	if len(list) != 1 || list[0].TicketID != st.Ticket.TicketID {
		t.Fatalf("history = %+v", list)
	}
	rec, err := f.wallet.GetTicket(context.Background(), st.Ticket.TicketID)
	if err != nil || !rec.Claimed {
		t.Fatalf("ticket not struck: %+v %v", rec, err)
	}
}

func TestReplayResetsToInitialState(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5, 0.0, 0.5)
	initial := f.c.Snapshot()

	if _, err := f.c.Purchase(context.Background(), spec.Gold); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	revealAll(t, f.c, 16)
	if p := f.c.Player(); p.ID != identity.DemoPlayerID {
		t.Fatalf("player = %+v", p)
	}
	after, err := f.c.PlayAgain()
	if err != nil {
		t.Fatalf("play again: %v", err)
	}
	if p := f.c.Player(); p != (identity.Player{}) {
		t.Fatalf("player after play again = %+v", p)
	}
	if !reflect.DeepEqual(initial, after) {
		t.Fatalf("reset state differs:\ninitial %+v\nafter   %+v", initial, after)
	}
	if after.Tier != "" || after.IsWinner || after.PrizeAmount != nil || after.Puzzle != nil {
		t.Fatalf("state not cleared: %+v", after)
	}
	// 重新購票必須重新判定
	if _, err := f.c.Purchase(context.Background(), spec.Bronze); err != nil {
		t.Fatalf("second purchase: %v", err)
	}
}

func TestBronzeLoserDrag(t *testing.T) {
	// 0.9 → 未中獎；0.0 → drag
	f := newFixture(t, nil, nil, 0.9, 0.0)
	st, err := f.c.Purchase(context.Background(), spec.Bronze)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if st.PuzzleType != spec.KindDrag || st.IsWinner || len(st.Puzzle.Pieces) != 3 {
		t.Fatalf("after purchase = %+v", st)
	}
	if _, err := f.c.RevealTile(context.Background(), 0); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("wrong kind err = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.c.DropPiece(context.Background(), i, 0, 0); err != nil {
			t.Fatalf("drop %d: %v", i, err)
		}
	}
	st = f.c.Snapshot()
	if st.Stage != flow.StageResults || st.PrizeAmount != nil {
		t.Fatalf("results = %+v", st)
	}
	list, _ := f.store.List(context.Background(), identity.DemoPlayerID)
	if len(list) != 1 || list[0].PrizeAmount != nil || list[0].IsWinner {
		t.Fatalf("history = %+v", list)
	}
}

func TestChainFailureStaysInPurchase(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5)
	cause := errors.New("user rejected the request")
	f.wallet.FailNext(cause)

	st, err := f.c.Purchase(context.Background(), spec.Silver)
	if !errs.IsKind(err, errs.KindChain) || !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
	if st.Stage != flow.StagePurchase || st.Ticket != nil || st.Tier != "" || st.Pending {
		t.Fatalf("partial state after failure: %+v", st)
	}
	if st.LastError == "" {
		t.Fatalf("failure not surfaced")
	}
	st, err = f.c.Purchase(context.Background(), spec.Silver)
	if err != nil || st.Stage != flow.StagePuzzle {
		t.Fatalf("retry = %+v %v", st, err)
	}
}

func TestUnknownTierIsConfigurationError(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0)
	events, cancel := f.wallet.Subscribe()
	defer cancel()

	st, err := f.c.Purchase(context.Background(), "platinum")
	if !errs.IsKind(err, errs.KindConfiguration) {
		t.Fatalf("err = %v", err)
	}
	if st.Stage != flow.StagePurchase {
		t.Fatalf("stage = %s", st.Stage)
	}
	select {
	case ev := <-events:
		t.Fatalf("ticket bought for unknown tier: %+v", ev)
	default:
	}
}

func TestStageGuards(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5)
	ctx := context.Background()
	if _, err := f.c.RevealTile(ctx, 0); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("reveal in purchase err = %v", err)
	}
	if _, err := f.c.PlayAgain(); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("play again in purchase err = %v", err)
	}
	if _, err := f.c.Abandon(); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("abandon in purchase err = %v", err)
	}
	f.c.Purchase(ctx, spec.Gold)
	if _, err := f.c.Purchase(ctx, spec.Gold); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("purchase in puzzle err = %v", err)
	}
	if _, err := f.c.PlayAgain(); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("play again in puzzle err = %v", err)
	}
}

func TestAbandonDiscardsPuzzle(t *testing.T) {
	f := newFixture(t, nil, nil, 0.0, 0.5)
	ctx := context.Background()
	f.c.Purchase(ctx, spec.Gold)
	f.c.RevealTile(ctx, 0)
	st, err := f.c.Abandon()
	if err != nil || st.Stage != flow.StagePurchase || st.Puzzle != nil {
		t.Fatalf("abandon = %+v %v", st, err)
	}
	if p := f.c.Player(); p.ID != "" {
		t.Fatalf("player after abandon = %+v", p)
	}
	if _, err := f.c.RevealTile(ctx, 1); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("reveal after abandon err = %v", err)
	}
	if list, _ := f.store.List(ctx, identity.DemoPlayerID); len(list) != 0 {
		t.Fatalf("abandoned puzzle recorded: %+v", list)
	}
}

func TestUnauthorizedPurchase(t *testing.T) {
	f := newFixture(t, nil, identity.NewJWT([]byte("s3cret"), ""), 0.0, 0.5)
	st, err := f.c.Purchase(context.Background(), spec.Gold)
	if !errs.IsKind(err, errs.KindUnauthorized) || st.Stage != flow.StagePurchase {
		t.Fatalf("purchase = %+v %v", st, err)
	}
}

// gateWallet 讓購票卡在鏈上呼叫，用來觀察 pending 狀態。
type gateWallet struct {
	*chain.Simulated
	entered chan struct{}
	release chan struct{}
}

func (g *gateWallet) BuyTicket(ctx context.Context, owner string, tier spec.Tier) (chain.Purchase, error) {
	close(g.entered)
	<-g.release
	return g.Simulated.BuyTicket(ctx, owner, tier)
}

func TestPendingPurchase(t *testing.T) {
	ls, err := spec.GetLabSettingFromFS(demo_configs.FS, demo_configs.Default)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	gw := &gateWallet{
		Simulated: chain.NewSimulated(ls.Odds(), decimal.Zero),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	f := newFixture(t, gw, nil, 0.0, 0.5)

	done := make(chan error, 1)
	go func() {
		_, err := f.c.Purchase(context.Background(), spec.Gold)
		done <- err
	}()
	<-gw.entered
	if st := f.c.Snapshot(); !st.Pending || st.Stage != flow.StagePurchase {
		t.Fatalf("while pending = %+v", st)
	}
	if _, err := f.c.Purchase(context.Background(), spec.Gold); !errs.IsKind(err, errs.KindStage) {
		t.Fatalf("concurrent purchase err = %v", err)
	}
	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if st := f.c.Snapshot(); st.Pending || st.Stage != flow.StagePuzzle {
		t.Fatalf("after pending = %+v", st)
	}
}
